package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aurelia-jewels/api/internal/services"
)

type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var body errorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestRouterUnknownRouteReturnsJSONEnvelope(t *testing.T) {
	router := NewRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected JSON content type, got %q", got)
	}
	errBody := decodeErrorBody(t, rec)
	if errBody.Error != "route_not_found" {
		t.Fatalf("unexpected error code %q", errBody.Error)
	}
}

func TestRouterUnconfiguredGroupReturnsNotImplemented(t *testing.T) {
	router := NewRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", rec.Code)
	}
}

func TestRouterMountsConfiguredRegistrar(t *testing.T) {
	router := NewRouter(WithProductRoutes(func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			writeJSONResponse(w, http.StatusOK, map[string]string{"ok": "yes"})
		})
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouterAdminMiddlewareGuardsMutatingGroups(t *testing.T) {
	deny := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	}

	registrar := func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	}

	router := NewRouter(
		WithAdminMiddlewares(deny),
		WithProductRoutes(registrar),
		WithPublicRoutes(registrar),
	)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("admin group must be guarded, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/public", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("public group must not be guarded, got %d", rec.Code)
	}
}

func TestHealthzReportsUptime(t *testing.T) {
	now := time.Now()
	health := NewHealthHandlers(WithHealthClock(func() time.Time { return now }))

	rec := httptest.NewRecorder()
	health.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected status %v", body["status"])
	}
}

func TestReadyzFailingCheckReturns503(t *testing.T) {
	health := NewHealthHandlers(
		WithReadinessCheck("postgres", func(ctx context.Context) error { return nil }),
		WithReadinessCheck("firestore", func(ctx context.Context) error { return errors.New("unreachable") }),
	)

	rec := httptest.NewRecorder()
	health.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "unavailable" {
		t.Fatalf("unexpected status %q", body.Status)
	}
	if body.Checks["postgres"] != "ok" || body.Checks["firestore"] != "unreachable" {
		t.Fatalf("unexpected checks %v", body.Checks)
	}
}

func TestWriteServiceErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid input", services.ErrInvalidInput, http.StatusBadRequest, "invalid_request"},
		{"not found", services.ErrNotFound, http.StatusNotFound, "not_found"},
		{"conflict", services.ErrConflict, http.StatusConflict, "conflict"},
		{"run in progress", services.ErrReconciliationRunning, http.StatusConflict, "sync_in_progress"},
		{"remote failed", services.ErrRemoteFailed, http.StatusBadGateway, "upstream_failed"},
		{"persistence failed", services.ErrPersistenceFailed, http.StatusInternalServerError, "storage_failed"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_server_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			writeServiceError(req.Context(), rec, tc.err)

			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			errBody := decodeErrorBody(t, rec)
			if errBody.Error != tc.code {
				t.Fatalf("expected code %q, got %q", tc.code, errBody.Error)
			}
		})
	}
}
