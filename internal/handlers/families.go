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

const maxFamilyRequestBody = 16 * 1024

// FamilyHandlers exposes the ring family assignment endpoints.
type FamilyHandlers struct {
	assignsvc *services.AssignmentService
}

// NewFamilyHandlers constructs a family handler set.
func NewFamilyHandlers(svc *services.AssignmentService) *FamilyHandlers {
	return &FamilyHandlers{assignsvc: svc}
}

// Routes registers the family endpoints beneath /families.
func (h *FamilyHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}

	r.Get("/unassigned", h.listUnassigned)
	r.Get("/assigned", h.listAssigned)
	r.Put("/{ringId}/attributes", h.assign)
}

func (h *FamilyHandlers) listUnassigned(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rings, err := h.assignsvc.ListUnassigned(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"families": rings})
}

func (h *FamilyHandlers) listAssigned(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))

	rings, total, err := h.assignsvc.ListAssigned(ctx, repositories.AssignedRingFilter{
		Limit:   limit,
		Offset:  offset,
		OrderBy: strings.TrimSpace(query.Get("orderBy")),
		Desc:    query.Get("order") == "desc",
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"families": rings, "total": total})
}

type assignFamilyRequest struct {
	GroupID    int64 `json:"groupId"`
	CategoryID int64 `json:"categoryId"`
	StyleID    int64 `json:"styleId"`
	GenderID   int64 `json:"genderId"`
}

func (h *FamilyHandlers) assign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw := strings.TrimSpace(chi.URLParam(r, "ringId"))
	ringID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ringID <= 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "ring id must be a positive integer", http.StatusBadRequest))
		return
	}

	var req assignFamilyRequest
	if err := decodeJSONBody(r, maxFamilyRequestBody, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	err = h.assignsvc.Assign(ctx, services.AssignInput{
		RingID:     ringID,
		GroupID:    req.GroupID,
		CategoryID: req.CategoryID,
		StyleID:    req.StyleID,
		GenderID:   req.GenderID,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"ringId": ringID})
}
