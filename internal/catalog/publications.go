package catalog

import (
	"context"
	"encoding/json"
	"fmt"
)

const publicationsQuery = `
query publications {
  publications(first: 20) {
    nodes { id }
  }
}`

// ListPublications returns the ids of every sales channel publication.
func (c *Client) ListPublications(ctx context.Context) ([]string, error) {
	resp, err := c.Execute(ctx, publicationsQuery, nil)
	if err != nil {
		return nil, err
	}
	if err := resp.Err("publications"); err != nil {
		return nil, err
	}

	var payload struct {
		Publications struct {
			Nodes []struct {
				ID string `json:"id"`
			} `json:"nodes"`
		} `json:"publications"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return nil, fmt.Errorf("catalog: decode publications: %w", err)
	}

	ids := make([]string, 0, len(payload.Publications.Nodes))
	for _, node := range payload.Publications.Nodes {
		ids = append(ids, node.ID)
	}
	return ids, nil
}

const publishablePublishMutation = `
mutation publishablePublish($id: ID!, $input: [PublicationInput!]!) {
  publishablePublish(id: $id, input: $input) {
    userErrors { field message }
  }
}`

// PublishProduct publishes the product to every given publication.
func (c *Client) PublishProduct(ctx context.Context, productID string, publicationIDs []string) error {
	input := make([]any, 0, len(publicationIDs))
	for _, id := range publicationIDs {
		input = append(input, map[string]any{"publicationId": id})
	}

	resp, err := c.Execute(ctx, publishablePublishMutation, map[string]any{
		"id":    productID,
		"input": input,
	})
	if err != nil {
		return err
	}
	if err := resp.Err("publishablePublish"); err != nil {
		return err
	}

	var payload struct {
		PublishablePublish struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"publishablePublish"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return fmt.Errorf("catalog: decode publishablePublish: %w", err)
	}
	return mutationError("publishablePublish", payload.PublishablePublish.UserErrors)
}
