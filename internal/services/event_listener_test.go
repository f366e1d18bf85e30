package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/infrastructure/memory"
	"auction-marketplace/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	target  string
	message map[string]interface{}
}

// fakeFanout records what the listener sends and which listings it closes.
type fakeFanout struct {
	mu           sync.Mutex
	broadcasts   []sentMessage
	direct       []sentMessage
	closed       []string
	broadcastErr error
}

func (f *fakeFanout) BroadcastToListing(ctx context.Context, listingID string, message interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broadcastErr != nil {
		return f.broadcastErr
	}
	f.broadcasts = append(f.broadcasts, sentMessage{target: listingID, message: message.(map[string]interface{})})
	return nil
}

func (f *fakeFanout) NotifyUser(ctx context.Context, userID string, message interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.direct = append(f.direct, sentMessage{target: userID, message: message.(map[string]interface{})})
	return nil
}

func (f *fakeFanout) CloseAndUnregisterConnections(listingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, listingID)
	return nil
}

func (f *fakeFanout) RegisterConnection(userID, listingID string, conn domain.WebSocketConnection) error {
	return nil
}

func (f *fakeFanout) UnregisterConnection(userID, listingID string) error { return nil }

func (f *fakeFanout) GetConnectionsForListing(listingID string) []domain.WebSocketConnection {
	return nil
}

func (f *fakeFanout) GetConnectionsForUser(userID string) []domain.WebSocketConnection { return nil }

func (f *fakeFanout) snapshot() (broadcasts, direct []sentMessage, closed []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.broadcasts...), append([]sentMessage(nil), f.direct...),
		append([]string(nil), f.closed...)
}

// connFanout adapts fakeFanout to domain.ConnectionManager's context-free
// methods.
type connFanout struct{ *fakeFanout }

func (c connFanout) BroadcastToListing(listingID string, message interface{}) error {
	return c.fakeFanout.BroadcastToListing(context.Background(), listingID, message)
}

func (c connFanout) NotifyUser(userID string, message interface{}) error {
	return c.fakeFanout.NotifyUser(context.Background(), userID, message)
}

func newTestListener(f *fakeFanout) *EventListener {
	return NewEventListener(connFanout{f}, f, f, logger.NewNop())
}

func TestEventListener_BidAccepted(t *testing.T) {
	f := &fakeFanout{}
	el := newTestListener(f)

	err := el.HandleBidEvent(&domain.BidEvent{
		Type:      domain.BidAccepted,
		ListingID: "lst_1",
		UserID:    "bob",
		Amount:    decimal.RequireFromString("150"),
		Timestamp: time.Now(),
	})
	require.NoError(t, err)

	broadcasts, direct, closed := f.snapshot()
	require.Len(t, broadcasts, 1)
	require.Equal(t, "lst_1", broadcasts[0].target)
	require.Equal(t, "bid_update", broadcasts[0].message["type"])
	require.Equal(t, "150.00", broadcasts[0].message["current_bid"])
	require.Equal(t, "bob", broadcasts[0].message["current_winner"])
	require.Empty(t, direct)
	require.Empty(t, closed)
}

func TestEventListener_AuctionClosed(t *testing.T) {
	f := &fakeFanout{}
	el := newTestListener(f)

	err := el.HandleBidEvent(&domain.BidEvent{
		Type:      domain.AuctionClosed,
		ListingID: "lst_1",
		UserID:    "bob",
		Amount:    decimal.RequireFromString("120"),
	})
	require.NoError(t, err)

	broadcasts, direct, closed := f.snapshot()
	require.Len(t, direct, 1)
	require.Equal(t, "bob", direct[0].target)
	require.Equal(t, "auction_won", direct[0].message["type"])
	require.Equal(t, "120.00", direct[0].message["price"])
	require.Len(t, broadcasts, 1)
	require.Equal(t, "auction_closed", broadcasts[0].message["type"])
	require.Equal(t, []string{"lst_1"}, closed)
}

func TestEventListener_AuctionClosedWithoutWinner(t *testing.T) {
	f := &fakeFanout{}
	el := newTestListener(f)

	require.NoError(t, el.HandleBidEvent(&domain.BidEvent{Type: domain.AuctionClosed, ListingID: "lst_1"}))

	broadcasts, direct, closed := f.snapshot()
	require.Empty(t, direct)
	require.Len(t, broadcasts, 1)
	require.Equal(t, []string{"lst_1"}, closed)
}

func TestEventListener_BroadcastFailureKeepsConnections(t *testing.T) {
	f := &fakeFanout{broadcastErr: errors.New("write failed")}
	el := newTestListener(f)

	err := el.HandleBidEvent(&domain.BidEvent{Type: domain.AuctionClosed, ListingID: "lst_1"})
	require.Error(t, err)

	_, _, closed := f.snapshot()
	require.Empty(t, closed)
}

func TestEventListener_Reopened(t *testing.T) {
	f := &fakeFanout{}
	el := newTestListener(f)

	require.NoError(t, el.HandleBidEvent(&domain.BidEvent{
		Type:      domain.AuctionReopened,
		ListingID: "lst_1",
		Amount:    decimal.RequireFromString("70"),
	}))

	broadcasts, _, _ := f.snapshot()
	require.Len(t, broadcasts, 1)
	require.Equal(t, "auction_reopened", broadcasts[0].message["type"])
	require.Equal(t, "70.00", broadcasts[0].message["starting_price"])
}

func TestEventListener_UnknownType(t *testing.T) {
	el := newTestListener(&fakeFanout{})
	require.Error(t, el.HandleBidEvent(&domain.BidEvent{Type: "mystery", ListingID: "lst_1"}))
}

func TestEventListener_Start(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := memory.NewEventBus(logger.NewNop())
	f := &fakeFanout{}
	el := newTestListener(f)

	done := make(chan error, 1)
	go func() { done <- el.Start(ctx, bus) }()
	require.Eventually(t, func() bool { return bus.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, bus.PublishBidEvent(ctx, &domain.BidEvent{
		Type:      domain.BidAccepted,
		ListingID: "lst_1",
		UserID:    "bob",
		Amount:    decimal.RequireFromString("5"),
	}))
	require.Eventually(t, func() bool {
		broadcasts, _, _ := f.snapshot()
		return len(broadcasts) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
