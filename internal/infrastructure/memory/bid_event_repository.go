package memory

import (
	"auction-marketplace/internal/domain"
	"context"
	"sync"
)

// BidEventRepository archives events in process memory.
type BidEventRepository struct {
	mu     sync.RWMutex
	events []domain.BidEvent
}

func NewBidEventRepository() *BidEventRepository {
	return &BidEventRepository{}
}

func (r *BidEventRepository) SaveBidEvent(ctx context.Context, event *domain.BidEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *BidEventRepository) GetBidHistory(ctx context.Context, listingID string) ([]*domain.BidEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.BidEvent
	for _, e := range r.events {
		if e.ListingID == listingID && e.Type == domain.BidAccepted {
			e := e
			out = append(out, &e)
		}
	}
	return out, nil
}
