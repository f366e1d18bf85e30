package memory

import (
	"context"
	"testing"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"

	"github.com/stretchr/testify/require"
)

func TestEventBusDeliversToSubscriber(t *testing.T) {
	bus := NewEventBus(logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *domain.BidEvent, 1)
	done := make(chan error, 1)
	go func() {
		done <- bus.SubscribeToBidEvents(ctx, func(e *domain.BidEvent) error {
			got <- e
			return nil
		})
	}()
	require.Eventually(t, func() bool { return bus.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, bus.PublishBidEvent(context.Background(), &domain.BidEvent{Type: domain.BidAccepted, ListingID: "lst_1"}))

	select {
	case e := <-got:
		require.Equal(t, "lst_1", e.ListingID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	require.Zero(t, bus.Subscribers())
}

func TestBidEventRepositoryHistory(t *testing.T) {
	repo := NewBidEventRepository()
	ctx := context.Background()

	require.NoError(t, repo.SaveBidEvent(ctx, &domain.BidEvent{Type: domain.BidAccepted, ListingID: "lst_1", UserID: "bob"}))
	require.NoError(t, repo.SaveBidEvent(ctx, &domain.BidEvent{Type: domain.AuctionClosed, ListingID: "lst_1"}))
	require.NoError(t, repo.SaveBidEvent(ctx, &domain.BidEvent{Type: domain.BidAccepted, ListingID: "lst_2", UserID: "carol"}))

	history, err := repo.GetBidHistory(ctx, "lst_1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "bob", history[0].UserID)
}
