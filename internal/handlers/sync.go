package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aurelia-jewels/api/internal/services"
)

// SyncHandlers exposes the supplier feed reconciliation endpoints.
type SyncHandlers struct {
	reconsvc *services.ReconciliationService
	content  *services.ContentService
}

// NewSyncHandlers constructs a reconciliation handler set.
func NewSyncHandlers(recon *services.ReconciliationService, content *services.ContentService) *SyncHandlers {
	return &SyncHandlers{
		reconsvc: recon,
		content:  content,
	}
}

// Routes registers the reconciliation endpoints beneath /sync.
func (h *SyncHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}

	r.Post("/run", h.run)
	r.Get("/runs", h.listRuns)
}

// run triggers a full feed reconciliation and blocks until it
// completes. Concurrent triggers are rejected with a conflict.
func (h *SyncHandlers) run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, err := h.reconsvc.Run(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, summary)
}

func (h *SyncHandlers) listRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, _ := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("limit")))
	runs, err := h.content.ListSyncRuns(ctx, limit)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"runs": runs})
}
