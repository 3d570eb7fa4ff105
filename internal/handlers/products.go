package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aurelia-jewels/api/internal/platform/httpx"
	"github.com/aurelia-jewels/api/internal/repositories"
	"github.com/aurelia-jewels/api/internal/services"
)

const maxProductRequestBody = 64 * 1024

// ProductHandlers exposes the product listing and per-variation sync
// lifecycle endpoints.
type ProductHandlers struct {
	listing *services.ListingService
	sync    *services.ProductSyncService
	bulk    *services.BulkActionService
}

// NewProductHandlers constructs a product handler set.
func NewProductHandlers(listing *services.ListingService, sync *services.ProductSyncService, bulk *services.BulkActionService) *ProductHandlers {
	return &ProductHandlers{
		listing: listing,
		sync:    sync,
		bulk:    bulk,
	}
}

// Routes registers the product endpoints beneath /products.
func (h *ProductHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}

	r.Get("/", h.list)
	r.Post("/bulk/sync", h.bulkSync)
	r.Post("/bulk/unsync", h.bulkUnsync)
	r.Post("/bulk/delete", h.bulkDelete)
	r.Get("/{variationId}", h.get)
	r.Put("/{variationId}", h.edit)
	r.Delete("/{variationId}", h.delete)
	r.Post("/{variationId}/sync", h.syncOne)
	r.Post("/{variationId}/unsync", h.unsyncOne)
}

func (h *ProductHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))

	page, err := h.listing.ListProducts(ctx, repositories.ProductListingFilter{
		Display: strings.TrimSpace(query.Get("display")),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, page)
}

func (h *ProductHandlers) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := variationID(w, r)
	if !ok {
		return
	}

	variation, err := h.listing.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, variation)
}

type editProductRequest struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	BandWidth     string  `json:"bandWidth"`
	Weight        float64 `json:"weight"`
	Price         int64   `json:"price"`
	ShowcasePrice int64   `json:"showcasePrice"`
	Diamonds      string  `json:"diamonds"`
}

func (h *ProductHandlers) edit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := variationID(w, r)
	if !ok {
		return
	}

	var req editProductRequest
	if err := decodeJSONBody(r, maxProductRequestBody, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	err := h.sync.Edit(ctx, services.EditInput{
		VariationID:   id,
		Title:         req.Title,
		Description:   req.Description,
		BandWidth:     req.BandWidth,
		Weight:        req.Weight,
		Price:         req.Price,
		ShowcasePrice: req.ShowcasePrice,
		Diamonds:      req.Diamonds,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"id": id})
}

func (h *ProductHandlers) syncOne(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := variationID(w, r)
	if !ok {
		return
	}
	if err := h.sync.Sync(ctx, id); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"id": id, "synced": true})
}

func (h *ProductHandlers) unsyncOne(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := variationID(w, r)
	if !ok {
		return
	}
	if err := h.sync.Unsync(ctx, id); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"id": id, "synced": false})
}

func (h *ProductHandlers) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := variationID(w, r)
	if !ok {
		return
	}
	if err := h.sync.Delete(ctx, id); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bulkActionRequest struct {
	IDs []int64 `json:"ids"`
}

func (h *ProductHandlers) bulkSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req bulkActionRequest
	if err := decodeJSONBody(r, maxProductRequestBody, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	if err := h.bulk.SyncAll(ctx, req.IDs); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"synced": len(req.IDs)})
}

func (h *ProductHandlers) bulkUnsync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req bulkActionRequest
	if err := decodeJSONBody(r, maxProductRequestBody, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	if err := h.bulk.UnsyncAll(ctx, req.IDs); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"unsynced": len(req.IDs)})
}

func (h *ProductHandlers) bulkDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req bulkActionRequest
	if err := decodeJSONBody(r, maxProductRequestBody, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	report, err := h.bulk.DeleteAll(ctx, req.IDs)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if report.Partial {
		status = http.StatusPartialContent
	}
	writeJSONResponse(w, status, report)
}

func variationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "variationId"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "variation id must be a positive integer", http.StatusBadRequest))
		return 0, false
	}
	return id, true
}
