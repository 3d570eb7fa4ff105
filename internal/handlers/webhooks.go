package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aurelia-jewels/api/internal/platform/httpx"
	"github.com/aurelia-jewels/api/internal/services"
)

const maxWebhookRequestBody = 256 * 1024

// WebhookHandlers receives callbacks from the remote catalog. Signature
// verification happens in the group middleware, not here.
type WebhookHandlers struct {
	syncsvc *services.ProductSyncService
}

// NewWebhookHandlers constructs a webhook handler set.
func NewWebhookHandlers(syncsvc *services.ProductSyncService) *WebhookHandlers {
	return &WebhookHandlers{syncsvc: syncsvc}
}

// Routes registers the webhook endpoints beneath /webhooks.
func (h *WebhookHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}

	r.Post("/products/delete", h.productDeleted)
}

type productDeletedPayload struct {
	AdminGraphqlAPIID string `json:"admin_graphql_api_id"`
	ID                int64  `json:"id"`
}

func (h *WebhookHandlers) productDeleted(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload productDeletedPayload
	if err := decodeJSONBody(r, maxWebhookRequestBody, &payload); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	productID := strings.TrimSpace(payload.AdminGraphqlAPIID)
	if productID == "" && payload.ID > 0 {
		productID = fmt.Sprintf("gid://catalog/Product/%d", payload.ID)
	}
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	if err := h.syncsvc.HandleProductDeleteCallback(ctx, productID); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
