package catalog

import (
	"context"
	"encoding/json"
	"fmt"
)

const locationsQuery = `
query locations {
  locations(first: 1) {
    nodes { id }
  }
}`

// PrimaryLocationID returns the first available inventory location.
func (c *Client) PrimaryLocationID(ctx context.Context) (string, error) {
	resp, err := c.Execute(ctx, locationsQuery, nil)
	if err != nil {
		return "", err
	}
	if err := resp.Err("locations"); err != nil {
		return "", err
	}

	var payload struct {
		Locations struct {
			Nodes []struct {
				ID string `json:"id"`
			} `json:"nodes"`
		} `json:"locations"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return "", fmt.Errorf("catalog: decode locations: %w", err)
	}
	if len(payload.Locations.Nodes) == 0 {
		return "", fmt.Errorf("%w: no inventory locations", ErrNotFound)
	}
	return payload.Locations.Nodes[0].ID, nil
}

const inventoryAdjustMutation = `
mutation inventoryAdjustQuantities($input: InventoryAdjustQuantitiesInput!) {
  inventoryAdjustQuantities(input: $input) {
    userErrors { field message }
  }
}`

// AdjustInventory changes the available quantity of the inventory item
// at the location by delta.
func (c *Client) AdjustInventory(ctx context.Context, inventoryItemID, locationID string, delta int) error {
	resp, err := c.Execute(ctx, inventoryAdjustMutation, map[string]any{
		"input": map[string]any{
			"reason": "correction",
			"name":   "available",
			"changes": []any{
				map[string]any{
					"inventoryItemId": inventoryItemID,
					"locationId":      locationID,
					"delta":           delta,
				},
			},
		},
	})
	if err != nil {
		return err
	}
	if err := resp.Err("inventoryAdjustQuantities"); err != nil {
		return err
	}

	var payload struct {
		InventoryAdjustQuantities struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"inventoryAdjustQuantities"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return fmt.Errorf("catalog: decode inventoryAdjustQuantities: %w", err)
	}
	return mutationError("inventoryAdjustQuantities", payload.InventoryAdjustQuantities.UserErrors)
}
