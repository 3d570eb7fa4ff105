package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// Collection is a typed view over one Firestore collection. Documents
// decode through Firestore's native struct mapping.
type Collection[T any] struct {
	provider *Provider
	name     string
}

// NewCollection binds a typed collection to the provider.
func NewCollection[T any](provider *Provider, name string) *Collection[T] {
	return &Collection[T]{provider: provider, name: strings.TrimSpace(name)}
}

// Set upserts value under the given document id.
func (c *Collection[T]) Set(ctx context.Context, id string, value T) error {
	if strings.TrimSpace(id) == "" {
		return wrapError(c.op("set"), errors.New("document id is required"))
	}
	coll, err := c.ref(ctx)
	if err != nil {
		return err
	}
	if _, err := coll.Doc(id).Set(ctx, value); err != nil {
		return wrapError(c.op("set"), err)
	}
	return nil
}

// Query runs the built query and decodes every matching document.
func (c *Collection[T]) Query(ctx context.Context, build func(firestore.Query) firestore.Query) ([]T, error) {
	coll, err := c.ref(ctx)
	if err != nil {
		return nil, err
	}

	query := coll.Query
	if build != nil {
		query = build(query)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var out []T
	for {
		snapshot, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, wrapError(c.op("query"), err)
		}
		var value T
		if err := snapshot.DataTo(&value); err != nil {
			return nil, fmt.Errorf("%s: decode document %s: %w", c.op("query"), snapshot.Ref.ID, err)
		}
		out = append(out, value)
	}
	return out, nil
}

func (c *Collection[T]) ref(ctx context.Context) (*firestore.CollectionRef, error) {
	if c.provider == nil {
		return nil, wrapError(c.op("collection"), errors.New("provider is required"))
	}
	if c.name == "" {
		return nil, wrapError(c.op("collection"), errors.New("collection name is required"))
	}
	client, err := c.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(c.name), nil
}

func (c *Collection[T]) op(action string) string {
	name := c.name
	if name == "" {
		name = "firestore"
	}
	return name + "." + action
}
