package catalog

import (
	"context"
	"encoding/json"
	"fmt"
)

// MetafieldSetInput assigns one metafield value to an owner resource.
type MetafieldSetInput struct {
	OwnerID   string
	Namespace string
	Key       string
	Type      string
	Value     string
}

const metafieldsSetMutation = `
mutation metafieldsSet($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    metafields { id }
    userErrors { field message }
  }
}`

// SetMetafields writes the given metafield values in one call.
func (c *Client) SetMetafields(ctx context.Context, inputs []MetafieldSetInput) error {
	if len(inputs) == 0 {
		return nil
	}

	metafields := make([]any, 0, len(inputs))
	for _, input := range inputs {
		metafields = append(metafields, map[string]any{
			"ownerId":   input.OwnerID,
			"namespace": input.Namespace,
			"key":       input.Key,
			"type":      input.Type,
			"value":     input.Value,
		})
	}

	resp, err := c.Execute(ctx, metafieldsSetMutation, map[string]any{"metafields": metafields})
	if err != nil {
		return err
	}
	if err := resp.Err("metafieldsSet"); err != nil {
		return err
	}

	var payload struct {
		MetafieldsSet struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"metafieldsSet"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return fmt.Errorf("catalog: decode metafieldsSet: %w", err)
	}
	return mutationError("metafieldsSet", payload.MetafieldsSet.UserErrors)
}

// ProductMetafieldValue pairs a product with the value of one of its
// metafields.
type ProductMetafieldValue struct {
	ProductID string
	Value     string
}

const productsWithMetafieldQuery = `
query productsWithMetafield($cursor: String, $namespace: String!, $key: String!) {
  products(first: 100, after: $cursor) {
    nodes {
      id
      metafield(namespace: $namespace, key: $key) { value }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
  }
}`

// ListProductsWithMetafield pages through every remote product and
// returns those carrying a non-empty value for the metafield.
func (c *Client) ListProductsWithMetafield(ctx context.Context, namespace, key string) ([]ProductMetafieldValue, error) {
	var (
		out    []ProductMetafieldValue
		cursor *string
	)

	for {
		variables := map[string]any{
			"namespace": namespace,
			"key":       key,
		}
		if cursor != nil {
			variables["cursor"] = *cursor
		}

		resp, err := c.Execute(ctx, productsWithMetafieldQuery, variables)
		if err != nil {
			return nil, err
		}
		if err := resp.Err("products"); err != nil {
			return nil, err
		}

		var payload struct {
			Products struct {
				Nodes []struct {
					ID        string `json:"id"`
					Metafield *struct {
						Value string `json:"value"`
					} `json:"metafield"`
				} `json:"nodes"`
				PageInfo struct {
					HasNextPage bool   `json:"hasNextPage"`
					EndCursor   string `json:"endCursor"`
				} `json:"pageInfo"`
			} `json:"products"`
		}
		if err := json.Unmarshal(resp.Data, &payload); err != nil {
			return nil, fmt.Errorf("catalog: decode products: %w", err)
		}

		for _, node := range payload.Products.Nodes {
			if node.Metafield == nil || node.Metafield.Value == "" {
				continue
			}
			out = append(out, ProductMetafieldValue{ProductID: node.ID, Value: node.Metafield.Value})
		}

		if !payload.Products.PageInfo.HasNextPage {
			return out, nil
		}
		end := payload.Products.PageInfo.EndCursor
		cursor = &end
	}
}
