package auth

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/aurelia-jewels/api/internal/platform/httpx"
)

const maxWebhookBody = 1 << 20

// WebhookVerifier authenticates catalog webhook deliveries by comparing
// the base64 HMAC-SHA256 digest of the raw body against the signature
// header sent by the remote platform.
type WebhookVerifier struct {
	secret []byte
	header string
}

// NewWebhookVerifier constructs a WebhookVerifier for the given shared
// secret and signature header name.
func NewWebhookVerifier(secret, header string) (*WebhookVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: webhook secret is required")
	}
	if strings.TrimSpace(header) == "" {
		return nil, errors.New("auth: signature header is required")
	}
	return &WebhookVerifier{secret: []byte(secret), header: header}, nil
}

// VerifyDigest reports whether the signature matches the body digest.
func (v *WebhookVerifier) VerifyDigest(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(signature)))
}

// Middleware reads and verifies the request body signature before
// passing the request on. The body is restored for downstream handlers.
func (v *WebhookVerifier) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			signature := r.Header.Get(v.header)
			if signature == "" {
				httpx.WriteError(r.Context(), w, httpx.NewError("unauthorized", "missing webhook signature", http.StatusUnauthorized))
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
			if err != nil {
				httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "unable to read request body", http.StatusBadRequest))
				return
			}
			_ = r.Body.Close()

			if !v.VerifyDigest(body, signature) {
				httpx.WriteError(r.Context(), w, httpx.NewError("unauthorized", "invalid webhook signature", http.StatusUnauthorized))
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}
