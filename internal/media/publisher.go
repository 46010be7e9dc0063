package media

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
)

type pubsubPublisher struct {
	pub *pubsub.Publisher
}

// NewPubSubPublisher adapts a Pub/Sub publisher into the deletion queue.
func NewPubSubPublisher(pub *pubsub.Publisher) (Publisher, error) {
	if pub == nil {
		return nil, fmt.Errorf("pubsub publisher is required")
	}
	return &pubsubPublisher{pub: pub}, nil
}

func (p *pubsubPublisher) PublishDeletion(ctx context.Context, req DeletionRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal deletion request: %w", err)
	}

	result := p.pub.Publish(ctx, &pubsub.Message{Data: data})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish deletion request: %w", err)
	}
	return nil
}
