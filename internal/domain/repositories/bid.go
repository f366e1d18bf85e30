package repositories

import (
	"auction-marketplace/internal/domain"
	"context"
)

type BidRepository interface {
	SaveBid(ctx context.Context, bid *domain.Bid) error
	// GetHighestBid returns the maximum-amount bid for the listing, the
	// earliest created one on ties, or domain.ErrNoBids.
	GetHighestBid(ctx context.Context, listingID string) (*domain.Bid, error)
	// ListBids returns the listing's bids, highest first.
	ListBids(ctx context.Context, listingID string) ([]*domain.Bid, error)
	DeleteBidsForListing(ctx context.Context, listingID string) (int64, error)
}

// BidEventRepository stores the archived event stream. Rows survive the
// bid purge performed on auction close.
type BidEventRepository interface {
	SaveBidEvent(ctx context.Context, event *domain.BidEvent) error
	GetBidHistory(ctx context.Context, listingID string) ([]*domain.BidEvent, error)
}
