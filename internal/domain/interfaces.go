package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -destination=mocks/mock_interfaces.go -package=mocks auction-marketplace/internal/domain RateLimiter,EventPublisher

// RateLimiter is the per-user counter of accepted bids.
type RateLimiter interface {
	// Count returns the accepted bids recorded for userID in the current window.
	Count(ctx context.Context, userID string) (int, error)
	// Acquire atomically increments the counter if it is below limit. The
	// window starts at the first increment and lasts for window.
	Acquire(ctx context.Context, userID string, limit int, window time.Duration) (bool, error)
	// Release undoes one Acquire whose bid was not stored.
	Release(ctx context.Context, userID string) error
}

// Validation interface
type BidValidator interface {
	ValidateListing(listing *Listing, userID string) error
	ParseAmount(raw string) (decimal.Decimal, error)
	ValidateAmount(listing *Listing, highest *Bid, userID string, amount decimal.Decimal) error
}

// Event interfaces
type EventPublisher interface {
	PublishBidEvent(ctx context.Context, event *BidEvent) error
}

type EventSubscriber interface {
	SubscribeToBidEvents(ctx context.Context, handler EventHandler) error
}

type EventHandler func(event *BidEvent) error

// Notification interfaces
type UserNotifier interface {
	NotifyUser(ctx context.Context, userID string, message interface{}) error
}

type ListingBroadcaster interface {
	BroadcastToListing(ctx context.Context, listingID string, message interface{}) error
}

// Leader election interface
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}

// WebSocket interfaces
type WebSocketConnection interface {
	Send(message interface{}) error
	Close() error
	UserID() string
	ListingID() string
}

type ConnectionManager interface {
	RegisterConnection(userID, listingID string, conn WebSocketConnection) error
	UnregisterConnection(userID, listingID string) error
	GetConnectionsForListing(listingID string) []WebSocketConnection
	GetConnectionsForUser(userID string) []WebSocketConnection
	BroadcastToListing(listingID string, message interface{}) error
	NotifyUser(userID string, message interface{}) error
	CloseAndUnregisterConnections(listingID string) error
}
