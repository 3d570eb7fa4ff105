package observability

import (
	"strings"
	"unicode"
)

// Log fields derived from request input are stripped of control
// characters and truncated so a crafted header cannot forge log lines.
func scrub(value string, max int) string {
	value = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, value)
	runes := []rune(value)
	if max > 0 && len(runes) > max {
		return string(runes[:max])
	}
	return value
}

// ScrubRoute bounds a route pattern for logging.
func ScrubRoute(route string) string {
	if route == "" {
		return "/"
	}
	return scrub(route, 180)
}

// ScrubMethod bounds an HTTP method for logging.
func ScrubMethod(method string) string {
	return scrub(method, 10)
}

// ScrubSubject bounds an auth subject so tokens cannot leak into logs
// wholesale.
func ScrubSubject(subject string) string {
	return scrub(subject, 64)
}
