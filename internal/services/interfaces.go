package services

import (
	"context"

	"github.com/aurelia-jewels/api/internal/catalog"
	"github.com/aurelia-jewels/api/internal/supplier"
)

// CatalogAPI is the remote commerce catalog surface the services rely
// on. *catalog.Client satisfies it; tests substitute recording stubs.
type CatalogAPI interface {
	CreateProduct(ctx context.Context, input catalog.ProductCreateInput) (catalog.CreatedProduct, error)
	UpdateProduct(ctx context.Context, input catalog.ProductUpdateInput) error
	UpdateProductStatus(ctx context.Context, productID, status string) error
	DeleteProduct(ctx context.Context, productID string) error
	CollectionExists(ctx context.Context, collectionID string) (bool, error)
	AddProductsToCollection(ctx context.Context, collectionID string, productIDs []string) error
	UpdateVariant(ctx context.Context, productID string, input catalog.VariantUpdateInput) error
	PrimaryLocationID(ctx context.Context) (string, error)
	AdjustInventory(ctx context.Context, inventoryItemID, locationID string, delta int) error
	ListPublications(ctx context.Context) ([]string, error)
	PublishProduct(ctx context.Context, productID string, publicationIDs []string) error
	SetMetafields(ctx context.Context, inputs []catalog.MetafieldSetInput) error
	ListProductsWithMetafield(ctx context.Context, namespace, key string) ([]catalog.ProductMetafieldValue, error)
	MetafieldDefinitionChoices(ctx context.Context, namespace, key string) (string, []string, error)
	UpdateMetafieldDefinitionChoices(ctx context.Context, namespace, key string, choices []string) error
	MetaobjectDefinitionChoices(ctx context.Context, metaobjectType, fieldKey string) (string, []string, error)
	UpdateMetaobjectDefinitionChoices(ctx context.Context, definitionID, fieldKey string, choices []string) error
	FindMetaobject(ctx context.Context, metaobjectType string, match map[string]string) (catalog.Metaobject, error)
	CreateMetaobject(ctx context.Context, metaobjectType string, fields map[string]string) (string, error)
	UpdateMetaobjectFields(ctx context.Context, id string, fields map[string]string) error
	DeleteMetaobject(ctx context.Context, id string) error
	UploadFile(ctx context.Context, filename, mimeType string, content []byte) (catalog.UploadedFile, error)
}

// FeedSource fetches the complete supplier feed.
type FeedSource interface {
	FetchAll(ctx context.Context) ([]supplier.RawRecord, error)
}

// SnapshotArchiver stores the raw feed payload of one run.
type SnapshotArchiver interface {
	Archive(ctx context.Context, runID string, payload []byte) (string, error)
}

// SyncEventMessage is one lifecycle event emitted after a
// reconciliation run.
type SyncEventMessage struct {
	RunID        string `json:"runId"`
	EventType    string `json:"eventType"`
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
	Inserted     int    `json:"inserted"`
	Updated      int    `json:"updated"`
	Deleted      int    `json:"deleted"`
	SnapshotPath string `json:"snapshotPath,omitempty"`
}

// SyncEventPublisher emits sync lifecycle events to downstream
// consumers.
type SyncEventPublisher interface {
	PublishSyncEvent(ctx context.Context, message SyncEventMessage) (string, error)
}
