package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/domain/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func seedListing(t *testing.T, s *Store, id, owner string) domain.Listing {
	t.Helper()
	now := time.Now().UTC()
	l := domain.Listing{
		ID:            id,
		OwnerID:       owner,
		Title:         "Lamp",
		StartingPrice: decimal.RequireFromString("50"),
		Active:        true,
		CategoryID:    DefaultCategoryID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, s.Listings().CreateListing(context.Background(), &l))
	return l
}

func bid(id, listing, bidder, amount string, at time.Time) *domain.Bid {
	return &domain.Bid{
		ID:        id,
		ListingID: listing,
		BidderID:  bidder,
		Amount:    decimal.RequireFromString(amount),
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestHighestBidEarliestWinsTies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedListing(t, s, "lst_1", "alice")
	now := time.Now()

	require.NoError(t, s.Bids().SaveBid(ctx, bid("b1", "lst_1", "bob", "80", now)))
	require.NoError(t, s.Bids().SaveBid(ctx, bid("b2", "lst_1", "carol", "120", now.Add(time.Second))))
	require.NoError(t, s.Bids().SaveBid(ctx, bid("b3", "lst_1", "dave", "120", now.Add(2*time.Second))))

	highest, err := s.Bids().GetHighestBid(ctx, "lst_1")
	require.NoError(t, err)
	require.Equal(t, "b2", highest.ID)

	bids, err := s.Bids().ListBids(ctx, "lst_1")
	require.NoError(t, err)
	require.Len(t, bids, 3)
	require.Equal(t, []string{"b2", "b3", "b1"}, []string{bids[0].ID, bids[1].ID, bids[2].ID})
}

func TestGetHighestBidNoBids(t *testing.T) {
	s := NewStore()
	seedListing(t, s, "lst_1", "alice")

	_, err := s.Bids().GetHighestBid(context.Background(), "lst_1")
	require.ErrorIs(t, err, domain.ErrNoBids)
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedListing(t, s, "lst_1", "alice")
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		require.NoError(t, tx.Bids().SaveBid(ctx, bid("b1", "lst_1", "bob", "60", time.Now())))
		l, err := tx.Listings().GetListingForUpdate(ctx, "lst_1")
		require.NoError(t, err)
		l.Active = false
		require.NoError(t, tx.Listings().UpdateListing(ctx, l))
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.Empty(t, s.BidHistory("lst_1"))
	l, err := s.Listings().GetListing(ctx, "lst_1")
	require.NoError(t, err)
	require.True(t, l.Active)
}

func TestWithinTxCommits(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedListing(t, s, "lst_1", "alice")

	err := s.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		return tx.Bids().SaveBid(ctx, bid("b1", "lst_1", "bob", "60", time.Now()))
	})
	require.NoError(t, err)
	require.Len(t, s.BidHistory("lst_1"), 1)
}

func TestReturnedListingIsACopy(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedListing(t, s, "lst_1", "alice")

	l, err := s.Listings().GetListing(ctx, "lst_1")
	require.NoError(t, err)
	l.Title = "changed"

	again, err := s.Listings().GetListing(ctx, "lst_1")
	require.NoError(t, err)
	require.Equal(t, "Lamp", again.Title)
}

func TestListActiveListingsByCategory(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedListing(t, s, "lst_1", "alice")
	closed := seedListing(t, s, "lst_2", "alice")
	closed.Active = false
	require.NoError(t, s.Listings().UpdateListing(ctx, &closed))

	active, err := s.Listings().ListActiveListings(ctx, domain.DefaultCategoryName)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "lst_1", active[0].ID)

	none, err := s.Listings().ListActiveListings(ctx, "Books")
	require.NoError(t, err)
	require.Empty(t, none)

	counts, err := s.Listings().CountActiveByCategory(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, counts[domain.DefaultCategoryName])
}

func TestNotificationsMarkAllRead(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	repo := s.Notifications()

	require.NoError(t, repo.CreateNotification(ctx, &domain.Notification{ID: "n1", UserID: "bob", ListingID: "lst_1"}))
	require.NoError(t, repo.CreateNotification(ctx, &domain.Notification{ID: "n2", UserID: "bob", ListingID: "lst_2"}))

	unread, err := repo.CountUnread(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, 2, unread)

	list, err := repo.ListNotifications(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, "n2", list[0].ID)

	changed, err := repo.MarkAllRead(ctx, "bob")
	require.NoError(t, err)
	require.EqualValues(t, 2, changed)
	require.False(t, list[0].IsRead)

	unread, err = repo.CountUnread(ctx, "bob")
	require.NoError(t, err)
	require.Zero(t, unread)
}

func TestWatchlistIsIdempotent(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedListing(t, s, "lst_1", "alice")
	repo := s.Watchlist()

	entry := &domain.WatchlistEntry{UserID: "bob", ListingID: "lst_1", CreatedAt: time.Now()}
	require.NoError(t, repo.AddToWatchlist(ctx, entry))
	require.NoError(t, repo.AddToWatchlist(ctx, entry))

	watched, err := repo.ListWatchedListings(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, watched, 1)

	require.NoError(t, repo.RemoveFromWatchlist(ctx, "bob", "lst_1"))
	ok, err := repo.IsWatching(ctx, "bob", "lst_1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPendingJobsAndCancel(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Now()
	repo := s.Jobs()

	require.NoError(t, repo.CreateJob(ctx, &domain.ScheduledJob{ID: "j1", ListingID: "lst_1", RunAt: now.Add(-time.Minute), Status: domain.JobPending}))
	require.NoError(t, repo.CreateJob(ctx, &domain.ScheduledJob{ID: "j2", ListingID: "lst_1", RunAt: now.Add(time.Hour), Status: domain.JobPending}))

	due, err := repo.GetPendingJobs(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, "j1", due[0].ID)

	require.NoError(t, repo.CancelJobsForListing(ctx, "lst_1"))
	due, err = repo.GetPendingJobs(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Empty(t, due)
}
