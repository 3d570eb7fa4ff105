package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/aurelia-jewels/api/internal/platform/requestctx"
)

// Error is the JSON error envelope every handler returns. The encoded
// payload is flat: code, message and status at the top level, with
// request and trace identifiers and any details merged alongside them.
type Error struct {
	Code      string
	Message   string
	Status    int
	RequestID string
	TraceID   string
	Details   map[string]any
}

// NewError builds an Error with a cleaned code and message. A zero
// status becomes 500.
func NewError(code, message string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{
		Code:    clean(code, 80),
		Message: clean(message, 512),
		Status:  status,
	}
}

// WithRequestID returns a copy carrying the request identifier.
func (e Error) WithRequestID(id string) Error {
	e.RequestID = clean(id, 80)
	return e
}

// WithTraceID returns a copy carrying the trace identifier.
func (e Error) WithTraceID(id string) Error {
	e.TraceID = clean(id, 64)
	return e
}

// WithDetails returns a copy with extra payload fields. The map is
// copied so later caller mutations do not leak into the response.
func (e Error) WithDetails(details map[string]any) Error {
	if len(details) == 0 {
		return e
	}
	e.Details = make(map[string]any, len(details))
	for key, value := range details {
		e.Details[key] = value
	}
	return e
}

// WriteError encodes the error envelope onto w. Request and trace ids
// missing from the error are recovered from the context.
func WriteError(ctx context.Context, w http.ResponseWriter, err Error) {
	status := err.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}

	payload := map[string]any{
		"error":   err.Code,
		"message": err.Message,
		"status":  status,
	}
	if id := firstClean(err.RequestID, middleware.GetReqID(ctx), 80); id != "" {
		payload["request_id"] = id
	}
	if id := firstClean(err.TraceID, requestctx.TraceID(ctx), 64); id != "" {
		payload["trace_id"] = id
	}
	for key, value := range err.Details {
		payload[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func firstClean(primary, fallback string, limit int) string {
	if primary != "" {
		return primary
	}
	return clean(fallback, limit)
}

// clean collapses control characters to spaces and bounds the length so
// caller-supplied text cannot distort logs or responses.
func clean(value string, limit int) string {
	if limit <= 0 {
		limit = 256
	}
	value = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, value)
	value = strings.TrimSpace(value)

	runes := []rune(value)
	if len(runes) > limit {
		value = string(runes[:limit])
	}
	return value
}
