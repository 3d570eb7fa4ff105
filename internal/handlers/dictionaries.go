package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aurelia-jewels/api/internal/domain"
	"github.com/aurelia-jewels/api/internal/platform/httpx"
	"github.com/aurelia-jewels/api/internal/services"
)

const (
	maxDictionaryRequestBody = 16 * 1024
	maxImageUploadBytes      = 8 << 20
)

// DictionaryHandlers exposes CRUD endpoints for the attribute
// dictionaries, addressed by kind.
type DictionaryHandlers struct {
	dictsvc *services.DictionaryService
}

// NewDictionaryHandlers constructs a dictionary handler set.
func NewDictionaryHandlers(svc *services.DictionaryService) *DictionaryHandlers {
	return &DictionaryHandlers{dictsvc: svc}
}

// Routes registers the dictionary endpoints beneath /dictionaries.
func (h *DictionaryHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}

	r.Route("/{kind}", func(kr chi.Router) {
		kr.Get("/", h.list)
		kr.Post("/", h.create)
		kr.Put("/{entryId}", h.rename)
		kr.Delete("/{entryId}", h.delete)
		kr.Put("/{entryId}/image", h.updateImage)
	})
}

func (h *DictionaryHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, ok := dictionaryKind(w, r)
	if !ok {
		return
	}

	entries, err := h.dictsvc.List(ctx, kind)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"entries": entries})
}

type createDictionaryRequest struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

func (h *DictionaryHandlers) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, ok := dictionaryKind(w, r)
	if !ok {
		return
	}

	var req createDictionaryRequest
	if err := decodeJSONBody(r, maxDictionaryRequestBody, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	id, err := h.dictsvc.Create(ctx, kind, req.Name, req.ImageURL)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, map[string]any{"id": id, "name": req.Name})
}

type renameDictionaryRequest struct {
	Name string `json:"name"`
}

func (h *DictionaryHandlers) rename(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, ok := dictionaryKind(w, r)
	if !ok {
		return
	}
	id, ok := dictionaryEntryID(w, r)
	if !ok {
		return
	}

	var req renameDictionaryRequest
	if err := decodeJSONBody(r, maxDictionaryRequestBody, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	if err := h.dictsvc.Rename(ctx, kind, id, req.Name); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"id": id, "name": req.Name})
}

func (h *DictionaryHandlers) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, ok := dictionaryKind(w, r)
	if !ok {
		return
	}
	id, ok := dictionaryEntryID(w, r)
	if !ok {
		return
	}

	if err := h.dictsvc.Delete(ctx, kind, id); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// updateImage accepts a multipart form with an optional "image" part.
// A request without one clears the image.
func (h *DictionaryHandlers) updateImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, ok := dictionaryKind(w, r)
	if !ok {
		return
	}
	id, ok := dictionaryEntryID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "multipart form expected", http.StatusBadRequest))
		return
	}

	var (
		filename string
		mimeType string
		content  []byte
	)
	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		content, err = io.ReadAll(io.LimitReader(file, maxImageUploadBytes))
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "could not read image", http.StatusBadRequest))
			return
		}
		filename = header.Filename
		mimeType = header.Header.Get("Content-Type")
	case err == http.ErrMissingFile:
		// Empty content clears the image.
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "could not read image", http.StatusBadRequest))
		return
	}

	if err := h.dictsvc.UpdateImage(ctx, kind, id, filename, mimeType, content); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"id": id})
}

func dictionaryKind(w http.ResponseWriter, r *http.Request) (domain.DictionaryKind, bool) {
	kind := domain.DictionaryKind(strings.TrimSpace(chi.URLParam(r, "kind")))
	if !kind.Valid() {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "unknown dictionary kind", http.StatusBadRequest))
		return "", false
	}
	return kind, true
}

func dictionaryEntryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "entryId"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "entry id must be a positive integer", http.StatusBadRequest))
		return 0, false
	}
	return id, true
}
