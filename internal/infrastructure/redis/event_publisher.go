package redis

import (
	"auction-marketplace/internal/domain"
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// EventsChannel carries every BidEvent as JSON.
const EventsChannel = "auction_events"

type EventPublisherImpl struct {
	client *redis.Client
}

func NewEventPublisher(client *redis.Client) *EventPublisherImpl {
	return &EventPublisherImpl{client: client}
}

func (r *EventPublisherImpl) PublishBidEvent(ctx context.Context, event *domain.BidEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}
	return r.client.Publish(ctx, EventsChannel, payload).Err()
}
