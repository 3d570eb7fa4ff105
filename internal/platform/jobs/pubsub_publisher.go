package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"

	"github.com/aurelia-jewels/api/internal/services"
)

// PubSubSyncEventPublisher publishes reconciliation and sync lifecycle
// events to a Pub/Sub topic for downstream consumers.
type PubSubSyncEventPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubSyncEventPublisher constructs a Pub/Sub backed event publisher.
func NewPubSubSyncEventPublisher(topic *pubsub.Topic) (*PubSubSyncEventPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub sync event publisher: topic is required")
	}
	return &PubSubSyncEventPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// PublishSyncEvent enqueues a sync event message on the configured topic.
func (p *PubSubSyncEventPublisher) PublishSyncEvent(ctx context.Context, message services.SyncEventMessage) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub sync event publisher: not initialised")
	}

	data, err := p.marshal(message)
	if err != nil {
		return "", fmt.Errorf("marshal sync event: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "runId", message.RunID)
	setAttr(attrs, "eventType", message.EventType)
	setAttr(attrs, "status", message.Status)

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})

	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish sync event: %w", err)
	}
	return id, nil
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
