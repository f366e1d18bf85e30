package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/infrastructure/memory"
	"auction-marketplace/pkg/logger"

	"github.com/stretchr/testify/require"
)

func TestWatchlistService(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := memory.NewStore()
	svc := NewWatchlistService(store)
	svc.now = clock.Now

	seedListing(t, store, "lst_1", "seller", "10.00")
	seedListing(t, store, "lst_2", "seller", "10.00")

	require.NoError(t, svc.Add(ctx, "bob", "lst_1"))
	clock.Advance(time.Second)
	require.NoError(t, svc.Add(ctx, "bob", "lst_2"))
	require.NoError(t, svc.Add(ctx, "bob", "lst_2"))

	watched, err := svc.List(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, watched, 2)
	require.Equal(t, "lst_2", watched[0].ID)

	require.NoError(t, svc.Remove(ctx, "bob", "lst_2"))
	require.NoError(t, svc.Remove(ctx, "bob", "lst_2"))
	watched, err = svc.List(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, watched, 1)

	require.ErrorIs(t, svc.Add(ctx, "bob", "missing"), domain.ErrListingNotFound)
	require.ErrorIs(t, svc.Add(ctx, "", "lst_1"), domain.ErrUnauthenticated)
}

func TestCommentService(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := memory.NewStore()
	svc := NewCommentService(store, logger.NewNop())
	svc.now = clock.Now

	seedListing(t, store, "lst_1", "seller", "10.00")

	first, err := svc.AddComment(ctx, "alice", "lst_1", "  first  ")
	require.NoError(t, err)
	require.Equal(t, "first", first.Body)
	require.True(t, strings.HasPrefix(first.ID, "cmt"))

	clock.Advance(time.Second)
	_, err = svc.AddComment(ctx, "bob", "lst_1", "second")
	require.NoError(t, err)

	comments, err := svc.ListComments(ctx, "lst_1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	require.Equal(t, "second", comments[0].Body)

	_, err = svc.AddComment(ctx, "alice", "lst_1", "   ")
	require.ErrorIs(t, err, domain.ErrInvalidComment)
	_, err = svc.AddComment(ctx, "alice", "lst_1", strings.Repeat("x", 501))
	require.ErrorIs(t, err, domain.ErrInvalidComment)
	_, err = svc.AddComment(ctx, "alice", "lst_1", strings.Repeat("é", 500))
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, "alice", "missing", "hi")
	require.ErrorIs(t, err, domain.ErrListingNotFound)
	_, err = svc.AddComment(ctx, "", "lst_1", "hi")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = svc.ListComments(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrListingNotFound)
}

func TestNotificationService_ListMarksRead(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := &failingStore{Store: memory.NewStore()}
	am := newTestManager(store, nil, clock)
	svc := NewNotificationService(store, logger.NewNop())

	for _, id := range []string{"lst_1", "lst_2"} {
		seedListing(t, store.Store, id, "seller", "10.00")
		addBid(t, store.Store, id, "bob", "12.00", clock.Now())
		_, err := am.CloseAuction(ctx, "seller", id)
		require.NoError(t, err)
		clock.Advance(time.Second)
	}

	unread, err := svc.UnreadCount(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, 2, unread)

	list, err := svc.List(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "lst_2", list[0].ListingID)
	for _, n := range list {
		require.False(t, n.IsRead)
	}

	unread, err = svc.UnreadCount(ctx, "bob")
	require.NoError(t, err)
	require.Zero(t, unread)

	list, err = svc.List(ctx, "bob")
	require.NoError(t, err)
	require.True(t, list[0].IsRead)

	_, err = svc.List(ctx, "")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestHistoryService_SurvivesClose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logger.NewNop()
	bus := memory.NewEventBus(log)
	events := memory.NewBidEventRepository()
	archiver := NewBidArchiver(events, log)
	go archiver.Start(ctx, bus)
	require.Eventually(t, func() bool { return bus.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	store := &failingStore{Store: memory.NewStore()}
	bids := NewBidService(store, memory.NewRateLimiter(), NewRuleBidValidator(), bus, DefaultRateLimitPolicy(), log)
	am := NewAuctionManager(store, bus, log)
	history := NewHistoryService(store, events)

	seedListing(t, store.Store, "lst_1", "seller", "10.00")
	_, err := bids.SubmitBid(ctx, "alice", "lst_1", "11.00")
	require.NoError(t, err)
	_, err = bids.SubmitBid(ctx, "bob", "lst_1", "13.00")
	require.NoError(t, err)
	_, err = am.CloseAuction(ctx, "seller", "lst_1")
	require.NoError(t, err)
	require.Empty(t, store.BidHistory("lst_1"))

	require.Eventually(t, func() bool {
		h, err := history.BidHistory(ctx, "lst_1")
		return err == nil && len(h) == 2
	}, time.Second, 10*time.Millisecond)

	h, err := history.BidHistory(ctx, "lst_1")
	require.NoError(t, err)
	require.Equal(t, "alice", h[0].UserID)
	require.Equal(t, "13.00", domain.FormatAmount(h[1].Amount))

	_, err = history.BidHistory(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrListingNotFound)
}
