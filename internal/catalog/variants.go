package catalog

import (
	"context"
	"encoding/json"
	"fmt"
)

// VariantUpdateInput carries the sellable attributes applied to the
// product's default variant after creation.
type VariantUpdateInput struct {
	VariantID       string
	SKU             string
	Price           string
	CompareAtPrice  string
	WeightGrams     float64
	Tracked         bool
	InventoryPolicy string
}

const variantsBulkUpdateMutation = `
mutation productVariantsBulkUpdate($productId: ID!, $variants: [ProductVariantsBulkInput!]!) {
  productVariantsBulkUpdate(productId: $productId, variants: $variants) {
    productVariants { id }
    userErrors { field message }
  }
}`

// UpdateVariant rewrites the variant's SKU, pricing, weight, and
// inventory behaviour in a single bulk call.
func (c *Client) UpdateVariant(ctx context.Context, productID string, input VariantUpdateInput) error {
	inventoryItem := map[string]any{
		"sku":     input.SKU,
		"tracked": input.Tracked,
	}
	if input.WeightGrams > 0 {
		inventoryItem["measurement"] = map[string]any{
			"weight": map[string]any{
				"value": input.WeightGrams,
				"unit":  "GRAMS",
			},
		}
	}

	variant := map[string]any{
		"id":            input.VariantID,
		"price":         input.Price,
		"inventoryItem": inventoryItem,
	}
	if input.CompareAtPrice != "" {
		variant["compareAtPrice"] = input.CompareAtPrice
	}
	if input.InventoryPolicy != "" {
		variant["inventoryPolicy"] = input.InventoryPolicy
	}

	resp, err := c.Execute(ctx, variantsBulkUpdateMutation, map[string]any{
		"productId": productID,
		"variants":  []any{variant},
	})
	if err != nil {
		return err
	}
	if err := resp.Err("productVariantsBulkUpdate"); err != nil {
		return err
	}

	var payload struct {
		ProductVariantsBulkUpdate struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"productVariantsBulkUpdate"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return fmt.Errorf("catalog: decode productVariantsBulkUpdate: %w", err)
	}
	return mutationError("productVariantsBulkUpdate", payload.ProductVariantsBulkUpdate.UserErrors)
}
