package catalog

import (
	"context"
	"encoding/json"
	"fmt"
)

// Metaobject is a remote structured content record backing a dictionary
// display tile.
type Metaobject struct {
	ID     string
	Type   string
	Fields map[string]string
}

const metaobjectsQuery = `
query metaobjects($type: String!, $cursor: String) {
  metaobjects(type: $type, first: 100, after: $cursor) {
    nodes {
      id
      type
      fields { key value }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
  }
}`

// ListMetaobjects returns every metaobject of the given type.
func (c *Client) ListMetaobjects(ctx context.Context, metaobjectType string) ([]Metaobject, error) {
	var (
		out    []Metaobject
		cursor *string
	)

	for {
		variables := map[string]any{"type": metaobjectType}
		if cursor != nil {
			variables["cursor"] = *cursor
		}

		resp, err := c.Execute(ctx, metaobjectsQuery, variables)
		if err != nil {
			return nil, err
		}
		if err := resp.Err("metaobjects"); err != nil {
			return nil, err
		}

		var payload struct {
			Metaobjects struct {
				Nodes []struct {
					ID     string `json:"id"`
					Type   string `json:"type"`
					Fields []struct {
						Key   string `json:"key"`
						Value string `json:"value"`
					} `json:"fields"`
				} `json:"nodes"`
				PageInfo struct {
					HasNextPage bool   `json:"hasNextPage"`
					EndCursor   string `json:"endCursor"`
				} `json:"pageInfo"`
			} `json:"metaobjects"`
		}
		if err := json.Unmarshal(resp.Data, &payload); err != nil {
			return nil, fmt.Errorf("catalog: decode metaobjects: %w", err)
		}

		for _, node := range payload.Metaobjects.Nodes {
			fields := make(map[string]string, len(node.Fields))
			for _, field := range node.Fields {
				fields[field.Key] = field.Value
			}
			out = append(out, Metaobject{ID: node.ID, Type: node.Type, Fields: fields})
		}

		if !payload.Metaobjects.PageInfo.HasNextPage {
			return out, nil
		}
		end := payload.Metaobjects.PageInfo.EndCursor
		cursor = &end
	}
}

// FindMetaobject locates a metaobject of the given type whose fields
// match every entry of match. Returns ErrNotFound when absent.
func (c *Client) FindMetaobject(ctx context.Context, metaobjectType string, match map[string]string) (Metaobject, error) {
	all, err := c.ListMetaobjects(ctx, metaobjectType)
	if err != nil {
		return Metaobject{}, err
	}
	for _, candidate := range all {
		matched := true
		for key, want := range match {
			if candidate.Fields[key] != want {
				matched = false
				break
			}
		}
		if matched {
			return candidate, nil
		}
	}
	return Metaobject{}, fmt.Errorf("%w: metaobject %s", ErrNotFound, metaobjectType)
}

const metaobjectCreateMutation = `
mutation metaobjectCreate($metaobject: MetaobjectCreateInput!) {
  metaobjectCreate(metaobject: $metaobject) {
    metaobject { id }
    userErrors { field message }
  }
}`

// CreateMetaobject creates a metaobject with the given fields and
// returns its id.
func (c *Client) CreateMetaobject(ctx context.Context, metaobjectType string, fields map[string]string) (string, error) {
	fieldInputs := make([]any, 0, len(fields))
	for key, value := range fields {
		fieldInputs = append(fieldInputs, map[string]any{"key": key, "value": value})
	}

	resp, err := c.Execute(ctx, metaobjectCreateMutation, map[string]any{
		"metaobject": map[string]any{
			"type":   metaobjectType,
			"fields": fieldInputs,
		},
	})
	if err != nil {
		return "", err
	}
	if err := resp.Err("metaobjectCreate"); err != nil {
		return "", err
	}

	var payload struct {
		MetaobjectCreate struct {
			Metaobject struct {
				ID string `json:"id"`
			} `json:"metaobject"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"metaobjectCreate"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return "", fmt.Errorf("catalog: decode metaobjectCreate: %w", err)
	}
	if err := mutationError("metaobjectCreate", payload.MetaobjectCreate.UserErrors); err != nil {
		return "", err
	}
	return payload.MetaobjectCreate.Metaobject.ID, nil
}

const metaobjectUpdateMutation = `
mutation metaobjectUpdate($id: ID!, $metaobject: MetaobjectUpdateInput!) {
  metaobjectUpdate(id: $id, metaobject: $metaobject) {
    userErrors { field message }
  }
}`

// UpdateMetaobjectFields rewrites the given fields on the metaobject.
func (c *Client) UpdateMetaobjectFields(ctx context.Context, id string, fields map[string]string) error {
	fieldInputs := make([]any, 0, len(fields))
	for key, value := range fields {
		fieldInputs = append(fieldInputs, map[string]any{"key": key, "value": value})
	}

	resp, err := c.Execute(ctx, metaobjectUpdateMutation, map[string]any{
		"id":         id,
		"metaobject": map[string]any{"fields": fieldInputs},
	})
	if err != nil {
		return err
	}
	if err := resp.Err("metaobjectUpdate"); err != nil {
		return err
	}

	var payload struct {
		MetaobjectUpdate struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"metaobjectUpdate"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return fmt.Errorf("catalog: decode metaobjectUpdate: %w", err)
	}
	return mutationError("metaobjectUpdate", payload.MetaobjectUpdate.UserErrors)
}

const metaobjectDeleteMutation = `
mutation metaobjectDelete($id: ID!) {
  metaobjectDelete(id: $id) {
    deletedId
    userErrors { field message }
  }
}`

// DeleteMetaobject removes the metaobject permanently.
func (c *Client) DeleteMetaobject(ctx context.Context, id string) error {
	resp, err := c.Execute(ctx, metaobjectDeleteMutation, map[string]any{"id": id})
	if err != nil {
		return err
	}
	if err := resp.Err("metaobjectDelete"); err != nil {
		return err
	}

	var payload struct {
		MetaobjectDelete struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"metaobjectDelete"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return fmt.Errorf("catalog: decode metaobjectDelete: %w", err)
	}
	return mutationError("metaobjectDelete", payload.MetaobjectDelete.UserErrors)
}
