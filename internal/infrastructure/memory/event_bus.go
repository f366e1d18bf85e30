package memory

import (
	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
	"context"
	"sync"
)

// EventBus is an in-process stand-in for the Redis event channel. Handlers
// run on the subscriber's goroutine in publish order.
type EventBus struct {
	mu     sync.RWMutex
	subs   map[int]chan *domain.BidEvent
	nextID int
	log    logger.Logger
}

func NewEventBus(log logger.Logger) *EventBus {
	return &EventBus{
		subs: make(map[int]chan *domain.BidEvent),
		log:  log,
	}
}

// PublishBidEvent never blocks. A subscriber whose buffer is full misses
// the event.
func (b *EventBus) PublishBidEvent(ctx context.Context, event *domain.BidEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.log.Warn("Dropping event for slow subscriber", "subscriber", id, "type", event.Type, "listing_id", event.ListingID)
		}
	}
	return nil
}

// SubscribeToBidEvents blocks until ctx is done.
func (b *EventBus) SubscribeToBidEvents(ctx context.Context, handler domain.EventHandler) error {
	ch := make(chan *domain.BidEvent, 256)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}()

	for {
		select {
		case event := <-ch:
			if err := handler(event); err != nil {
				b.log.Error("Failed to handle event", "type", event.Type, "listing_id", event.ListingID, "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Subscribers reports how many subscribers are attached.
func (b *EventBus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
