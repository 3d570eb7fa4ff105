package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aurelia-jewels/api/internal/services"
)

// PublicHandlers exposes the unauthenticated storefront endpoints.
type PublicHandlers struct {
	content *services.ContentService
}

// NewPublicHandlers constructs a public handler set.
func NewPublicHandlers(content *services.ContentService) *PublicHandlers {
	return &PublicHandlers{content: content}
}

// Routes registers the public endpoints beneath /public.
func (h *PublicHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}

	r.Get("/banners", h.banners)
}

func (h *PublicHandlers) banners(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	banners, err := h.content.ListBanners(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"banners": banners})
}
