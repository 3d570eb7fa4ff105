package catalog

import (
	"context"
	"encoding/json"
	"fmt"
)

// Product statuses understood by the remote catalog.
const (
	ProductStatusActive   = "ACTIVE"
	ProductStatusArchived = "ARCHIVED"
)

// MetafieldInput is one metafield value attached to a product on
// creation or update.
type MetafieldInput struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Type      string `json:"type"`
	Value     string `json:"value"`
}

// ProductCreateInput carries the fields for a new remote product.
type ProductCreateInput struct {
	Title           string
	DescriptionHTML string
	Vendor          string
	ProductType     string
	Status          string
	Metafields      []MetafieldInput
}

// CreatedProduct identifies the remote entities produced by a create.
type CreatedProduct struct {
	ProductID       string
	VariantID       string
	InventoryItemID string
}

const productCreateMutation = `
mutation productCreate($input: ProductInput!) {
  productCreate(input: $input) {
    product {
      id
      variants(first: 1) {
        nodes {
          id
          inventoryItem { id }
        }
      }
    }
    userErrors { field message }
  }
}`

// CreateProduct creates a remote product with its metafields and
// returns the ids of the product, its default variant, and the
// variant's inventory item.
func (c *Client) CreateProduct(ctx context.Context, input ProductCreateInput) (CreatedProduct, error) {
	metafields := make([]map[string]any, 0, len(input.Metafields))
	for _, mf := range input.Metafields {
		metafields = append(metafields, map[string]any{
			"namespace": mf.Namespace,
			"key":       mf.Key,
			"type":      mf.Type,
			"value":     mf.Value,
		})
	}

	variables := map[string]any{
		"input": map[string]any{
			"title":           input.Title,
			"descriptionHtml": input.DescriptionHTML,
			"vendor":          input.Vendor,
			"productType":     input.ProductType,
			"status":          input.Status,
			"metafields":      metafields,
		},
	}

	resp, err := c.Execute(ctx, productCreateMutation, variables)
	if err != nil {
		return CreatedProduct{}, err
	}
	if err := resp.Err("productCreate"); err != nil {
		return CreatedProduct{}, err
	}

	var payload struct {
		ProductCreate struct {
			Product struct {
				ID       string `json:"id"`
				Variants struct {
					Nodes []struct {
						ID            string `json:"id"`
						InventoryItem struct {
							ID string `json:"id"`
						} `json:"inventoryItem"`
					} `json:"nodes"`
				} `json:"variants"`
			} `json:"product"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"productCreate"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return CreatedProduct{}, fmt.Errorf("catalog: decode productCreate: %w", err)
	}
	if err := mutationError("productCreate", payload.ProductCreate.UserErrors); err != nil {
		return CreatedProduct{}, err
	}

	created := CreatedProduct{ProductID: payload.ProductCreate.Product.ID}
	if nodes := payload.ProductCreate.Product.Variants.Nodes; len(nodes) > 0 {
		created.VariantID = nodes[0].ID
		created.InventoryItemID = nodes[0].InventoryItem.ID
	}
	if created.ProductID == "" {
		return CreatedProduct{}, &MutationError{Operation: "productCreate", UserErrors: []UserError{{Message: "no product returned"}}}
	}
	return created, nil
}

const productUpdateMutation = `
mutation productUpdate($input: ProductInput!) {
  productUpdate(input: $input) {
    product { id }
    userErrors { field message }
  }
}`

// ProductUpdateInput carries the mutable product fields. Empty strings
// are omitted from the mutation.
type ProductUpdateInput struct {
	ID              string
	Title           string
	DescriptionHTML string
	Status          string
}

// UpdateProduct applies the non-empty fields of the input to the
// remote product.
func (c *Client) UpdateProduct(ctx context.Context, input ProductUpdateInput) error {
	update := map[string]any{"id": input.ID}
	if input.Title != "" {
		update["title"] = input.Title
	}
	if input.DescriptionHTML != "" {
		update["descriptionHtml"] = input.DescriptionHTML
	}
	if input.Status != "" {
		update["status"] = input.Status
	}

	resp, err := c.Execute(ctx, productUpdateMutation, map[string]any{"input": update})
	if err != nil {
		return err
	}
	if err := resp.Err("productUpdate"); err != nil {
		return err
	}

	var payload struct {
		ProductUpdate struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"productUpdate"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return fmt.Errorf("catalog: decode productUpdate: %w", err)
	}
	return mutationError("productUpdate", payload.ProductUpdate.UserErrors)
}

// UpdateProductStatus flips the remote product's status.
func (c *Client) UpdateProductStatus(ctx context.Context, productID, status string) error {
	return c.UpdateProduct(ctx, ProductUpdateInput{ID: productID, Status: status})
}

const productDeleteMutation = `
mutation productDelete($input: ProductDeleteInput!) {
  productDelete(input: $input) {
    deletedProductId
    userErrors { field message }
  }
}`

// DeleteProduct removes the remote product permanently.
func (c *Client) DeleteProduct(ctx context.Context, productID string) error {
	resp, err := c.Execute(ctx, productDeleteMutation, map[string]any{
		"input": map[string]any{"id": productID},
	})
	if err != nil {
		return err
	}
	if err := resp.Err("productDelete"); err != nil {
		return err
	}

	var payload struct {
		ProductDelete struct {
			DeletedProductID string      `json:"deletedProductId"`
			UserErrors       []UserError `json:"userErrors"`
		} `json:"productDelete"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return fmt.Errorf("catalog: decode productDelete: %w", err)
	}
	return mutationError("productDelete", payload.ProductDelete.UserErrors)
}

const collectionQuery = `
query collection($id: ID!) {
  collection(id: $id) { id }
}`

// CollectionExists reports whether the remote collection id resolves.
func (c *Client) CollectionExists(ctx context.Context, collectionID string) (bool, error) {
	resp, err := c.Execute(ctx, collectionQuery, map[string]any{"id": collectionID})
	if err != nil {
		return false, err
	}
	if err := resp.Err("collection"); err != nil {
		return false, err
	}

	var payload struct {
		Collection *struct {
			ID string `json:"id"`
		} `json:"collection"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return false, fmt.Errorf("catalog: decode collection: %w", err)
	}
	return payload.Collection != nil && payload.Collection.ID != "", nil
}

const collectionAddProductsMutation = `
mutation collectionAddProducts($id: ID!, $productIds: [ID!]!) {
  collectionAddProducts(id: $id, productIds: $productIds) {
    userErrors { field message }
  }
}`

// AddProductsToCollection places the products into the collection.
func (c *Client) AddProductsToCollection(ctx context.Context, collectionID string, productIDs []string) error {
	resp, err := c.Execute(ctx, collectionAddProductsMutation, map[string]any{
		"id":         collectionID,
		"productIds": productIDs,
	})
	if err != nil {
		return err
	}
	if err := resp.Err("collectionAddProducts"); err != nil {
		return err
	}

	var payload struct {
		CollectionAddProducts struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"collectionAddProducts"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return fmt.Errorf("catalog: decode collectionAddProducts: %w", err)
	}
	return mutationError("collectionAddProducts", payload.CollectionAddProducts.UserErrors)
}
