package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aurelia-jewels/api/internal/platform/httpx"
)

type contextKey string

const subjectContextKey contextKey = "auth.subject"

// ErrInvalidToken is returned when a bearer token fails verification.
var ErrInvalidToken = errors.New("auth: invalid token")

// AdminVerifier validates first-party HS256 bearer tokens for admin routes.
type AdminVerifier struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewAdminVerifier constructs an AdminVerifier. The issuer is enforced
// only when non-empty.
func NewAdminVerifier(secret, issuer string) (*AdminVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	return &AdminVerifier{
		secret: []byte(secret),
		issuer: strings.TrimSpace(issuer),
		leeway: 30 * time.Second,
	}, nil
}

// Verify parses and validates the token, returning its subject.
func (v *AdminVerifier) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
	)
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}
	if v.issuer != "" && claims.Issuer != v.issuer {
		return "", fmt.Errorf("%w: issuer mismatch", ErrInvalidToken)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// Middleware rejects requests without a valid Authorization bearer token
// and stores the authenticated subject in the request context.
func (v *AdminVerifier) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				httpx.WriteError(r.Context(), w, httpx.NewError("unauthorized", "missing bearer token", http.StatusUnauthorized))
				return
			}
			subject, err := v.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				httpx.WriteError(r.Context(), w, httpx.NewError("unauthorized", "invalid bearer token", http.StatusUnauthorized))
				return
			}
			ctx := context.WithValue(r.Context(), subjectContextKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Subject returns the authenticated subject stored by Middleware, if any.
func Subject(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if subject, ok := ctx.Value(subjectContextKey).(string); ok {
		return subject
	}
	return ""
}
