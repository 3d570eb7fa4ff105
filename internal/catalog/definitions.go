package catalog

import (
	"context"
	"encoding/json"
	"fmt"
)

const choicesValidationName = "choices"

const metafieldDefinitionQuery = `
query metafieldDefinition($namespace: String!, $key: String!) {
  metafieldDefinitions(first: 1, ownerType: PRODUCT, namespace: $namespace, key: $key) {
    nodes {
      id
      validations { name value }
    }
  }
}`

// MetafieldDefinitionChoices returns the definition id and its
// predefined choice values for the product metafield.
func (c *Client) MetafieldDefinitionChoices(ctx context.Context, namespace, key string) (string, []string, error) {
	resp, err := c.Execute(ctx, metafieldDefinitionQuery, map[string]any{
		"namespace": namespace,
		"key":       key,
	})
	if err != nil {
		return "", nil, err
	}
	if err := resp.Err("metafieldDefinitions"); err != nil {
		return "", nil, err
	}

	var payload struct {
		MetafieldDefinitions struct {
			Nodes []struct {
				ID          string `json:"id"`
				Validations []struct {
					Name  string `json:"name"`
					Value string `json:"value"`
				} `json:"validations"`
			} `json:"nodes"`
		} `json:"metafieldDefinitions"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return "", nil, fmt.Errorf("catalog: decode metafieldDefinitions: %w", err)
	}
	if len(payload.MetafieldDefinitions.Nodes) == 0 {
		return "", nil, fmt.Errorf("%w: metafield definition %s.%s", ErrNotFound, namespace, key)
	}

	node := payload.MetafieldDefinitions.Nodes[0]
	for _, validation := range node.Validations {
		if validation.Name != choicesValidationName {
			continue
		}
		var choices []string
		if err := json.Unmarshal([]byte(validation.Value), &choices); err != nil {
			return "", nil, fmt.Errorf("catalog: decode choices validation: %w", err)
		}
		return node.ID, choices, nil
	}
	return node.ID, nil, nil
}

const metafieldDefinitionUpdateMutation = `
mutation metafieldDefinitionUpdate($definition: MetafieldDefinitionUpdateInput!) {
  metafieldDefinitionUpdate(definition: $definition) {
    userErrors { field message }
  }
}`

// UpdateMetafieldDefinitionChoices rewrites the full predefined choice
// list of the product metafield definition.
func (c *Client) UpdateMetafieldDefinitionChoices(ctx context.Context, namespace, key string, choices []string) error {
	encoded, err := json.Marshal(choices)
	if err != nil {
		return fmt.Errorf("catalog: encode choices: %w", err)
	}

	resp, err := c.Execute(ctx, metafieldDefinitionUpdateMutation, map[string]any{
		"definition": map[string]any{
			"namespace": namespace,
			"key":       key,
			"ownerType": "PRODUCT",
			"validations": []any{
				map[string]any{"name": choicesValidationName, "value": string(encoded)},
			},
		},
	})
	if err != nil {
		return err
	}
	if err := resp.Err("metafieldDefinitionUpdate"); err != nil {
		return err
	}

	var payload struct {
		MetafieldDefinitionUpdate struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"metafieldDefinitionUpdate"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return fmt.Errorf("catalog: decode metafieldDefinitionUpdate: %w", err)
	}
	return mutationError("metafieldDefinitionUpdate", payload.MetafieldDefinitionUpdate.UserErrors)
}

const metaobjectDefinitionQuery = `
query metaobjectDefinition($type: String!) {
  metaobjectDefinitionByType(type: $type) {
    id
    fieldDefinitions {
      key
      validations { name value }
    }
  }
}`

// MetaobjectDefinitionChoices returns the definition id and the choice
// values of one field of the metaobject definition.
func (c *Client) MetaobjectDefinitionChoices(ctx context.Context, metaobjectType, fieldKey string) (string, []string, error) {
	resp, err := c.Execute(ctx, metaobjectDefinitionQuery, map[string]any{"type": metaobjectType})
	if err != nil {
		return "", nil, err
	}
	if err := resp.Err("metaobjectDefinitionByType"); err != nil {
		return "", nil, err
	}

	var payload struct {
		MetaobjectDefinitionByType *struct {
			ID               string `json:"id"`
			FieldDefinitions []struct {
				Key         string `json:"key"`
				Validations []struct {
					Name  string `json:"name"`
					Value string `json:"value"`
				} `json:"validations"`
			} `json:"fieldDefinitions"`
		} `json:"metaobjectDefinitionByType"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return "", nil, fmt.Errorf("catalog: decode metaobjectDefinitionByType: %w", err)
	}
	if payload.MetaobjectDefinitionByType == nil {
		return "", nil, fmt.Errorf("%w: metaobject definition %s", ErrNotFound, metaobjectType)
	}

	definition := payload.MetaobjectDefinitionByType
	for _, field := range definition.FieldDefinitions {
		if field.Key != fieldKey {
			continue
		}
		for _, validation := range field.Validations {
			if validation.Name != choicesValidationName {
				continue
			}
			var choices []string
			if err := json.Unmarshal([]byte(validation.Value), &choices); err != nil {
				return "", nil, fmt.Errorf("catalog: decode choices validation: %w", err)
			}
			return definition.ID, choices, nil
		}
		return definition.ID, nil, nil
	}
	return definition.ID, nil, fmt.Errorf("%w: field %s on %s", ErrNotFound, fieldKey, metaobjectType)
}

const metaobjectDefinitionUpdateMutation = `
mutation metaobjectDefinitionUpdate($id: ID!, $definition: MetaobjectDefinitionUpdateInput!) {
  metaobjectDefinitionUpdate(id: $id, definition: $definition) {
    userErrors { field message }
  }
}`

// UpdateMetaobjectDefinitionChoices rewrites the choice list of one
// field on the metaobject definition.
func (c *Client) UpdateMetaobjectDefinitionChoices(ctx context.Context, definitionID, fieldKey string, choices []string) error {
	encoded, err := json.Marshal(choices)
	if err != nil {
		return fmt.Errorf("catalog: encode choices: %w", err)
	}

	resp, err := c.Execute(ctx, metaobjectDefinitionUpdateMutation, map[string]any{
		"id": definitionID,
		"definition": map[string]any{
			"fieldDefinitions": []any{
				map[string]any{
					"update": map[string]any{
						"key": fieldKey,
						"validations": []any{
							map[string]any{"name": choicesValidationName, "value": string(encoded)},
						},
					},
				},
			},
		},
	})
	if err != nil {
		return err
	}
	if err := resp.Err("metaobjectDefinitionUpdate"); err != nil {
		return err
	}

	var payload struct {
		MetaobjectDefinitionUpdate struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"metaobjectDefinitionUpdate"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return fmt.Errorf("catalog: decode metaobjectDefinitionUpdate: %w", err)
	}
	return mutationError("metaobjectDefinitionUpdate", payload.MetaobjectDefinitionUpdate.UserErrors)
}
