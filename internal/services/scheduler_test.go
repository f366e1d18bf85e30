package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/infrastructure/memory"
	"auction-marketplace/pkg/logger"

	"github.com/stretchr/testify/require"
)

type staticLeader struct {
	leader bool
	err    error
}

func (l *staticLeader) BecomeLeader(ctx context.Context, instanceID string) (bool, error) {
	return l.leader, l.err
}

func (l *staticLeader) IsLeader(ctx context.Context, instanceID string) (bool, error) {
	return l.leader, l.err
}

func (l *staticLeader) ReleaseLeadership(ctx context.Context, instanceID string) error {
	return nil
}

func addJob(t *testing.T, store *memory.Store, id, listingID, requestedBy string, runAt time.Time) {
	t.Helper()
	err := store.Jobs().CreateJob(context.Background(), &domain.ScheduledJob{
		ID:          id,
		ListingID:   listingID,
		JobType:     domain.JobCloseAuction,
		RequestedBy: requestedBy,
		RunAt:       runAt,
		Status:      domain.JobPending,
		CreatedAt:   runAt.Add(-time.Hour),
	})
	require.NoError(t, err)
}

func pendingJobIDs(t *testing.T, store *memory.Store) []string {
	t.Helper()
	jobs, err := store.Jobs().GetPendingJobs(context.Background(), time.Now().Add(100*365*24*time.Hour))
	require.NoError(t, err)
	ids := make([]string, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.ID)
	}
	return ids
}

func newTestScheduler(store *failingStore, leader domain.LeaderElection, clock *fakeClock) *CronAuctionScheduler {
	am := newTestManager(store, nil, clock)
	s := NewCronAuctionScheduler(store.Jobs(), am, leader, "instance-1", "@every 1s", logger.NewNop())
	s.now = clock.Now
	return s
}

func TestScheduler_RunOnce(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := &failingStore{Store: memory.NewStore()}
	s := newTestScheduler(store, nil, clock)

	seedListing(t, store.Store, "lst_due", "seller", "10.00")
	addBid(t, store.Store, "lst_due", "bob", "12.00", clock.Now())
	seedListing(t, store.Store, "lst_later", "seller", "10.00")
	seedListing(t, store.Store, "lst_sold", "other", "10.00")

	addJob(t, store.Store, "job_due", "lst_due", "seller", clock.Now().Add(-time.Minute))
	addJob(t, store.Store, "job_later", "lst_later", "seller", clock.Now().Add(time.Hour))
	addJob(t, store.Store, "job_not_owner", "lst_sold", "seller", clock.Now().Add(-time.Minute))
	addJob(t, store.Store, "job_missing", "missing", "seller", clock.Now().Add(-time.Minute))

	s.RunOnce(ctx)

	require.Equal(t, []string{"job_later"}, pendingJobIDs(t, store.Store))

	due, err := store.Listings().GetListing(ctx, "lst_due")
	require.NoError(t, err)
	require.False(t, due.Active)
	require.Equal(t, "bob", due.OwnerID)
	requireNotifications(t, store, "bob", 1)

	sold, err := store.Listings().GetListing(ctx, "lst_sold")
	require.NoError(t, err)
	require.True(t, sold.Active)

	clock.Advance(2 * time.Hour)
	s.RunOnce(ctx)
	require.Empty(t, pendingJobIDs(t, store.Store))

	later, err := store.Listings().GetListing(ctx, "lst_later")
	require.NoError(t, err)
	require.False(t, later.Active)
}

func TestScheduler_AlreadyClosedCountsAsDone(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := &failingStore{Store: memory.NewStore()}
	s := newTestScheduler(store, nil, clock)

	seedListing(t, store.Store, "lst_1", "seller", "10.00")
	listing, err := store.Listings().GetListing(ctx, "lst_1")
	require.NoError(t, err)
	listing.Active = false
	require.NoError(t, store.Listings().UpdateListing(ctx, listing))
	addJob(t, store.Store, "job_1", "lst_1", "seller", clock.Now())

	s.RunOnce(ctx)
	require.Empty(t, pendingJobIDs(t, store.Store))
}

func TestScheduler_RetriesStorageFailure(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := &failingStore{Store: memory.NewStore(), failCommit: true}
	s := newTestScheduler(store, nil, clock)

	seedListing(t, store.Store, "lst_1", "seller", "10.00")
	addJob(t, store.Store, "job_1", "lst_1", "seller", clock.Now())

	s.RunOnce(ctx)
	require.Equal(t, []string{"job_1"}, pendingJobIDs(t, store.Store))

	store.failCommit = false
	s.RunOnce(ctx)
	require.Empty(t, pendingJobIDs(t, store.Store))
}

func TestScheduler_OnlyLeaderRuns(t *testing.T) {
	tests := []struct {
		name        string
		leader      *staticLeader
		wantPending []string
	}{
		{name: "follower", leader: &staticLeader{leader: false}, wantPending: []string{"job_1"}},
		{name: "lookup_error", leader: &staticLeader{err: errors.New("redis down")}, wantPending: []string{"job_1"}},
		{name: "leader", leader: &staticLeader{leader: true}, wantPending: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			store := &failingStore{Store: memory.NewStore()}
			s := newTestScheduler(store, tt.leader, clock)

			seedListing(t, store.Store, "lst_1", "seller", "10.00")
			addJob(t, store.Store, "job_1", "lst_1", "seller", clock.Now())

			s.RunOnce(context.Background())
			require.Equal(t, tt.wantPending, pendingJobIDs(t, store.Store))
		})
	}
}

func TestScheduler_StartStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &failingStore{Store: memory.NewStore()}
	am := NewAuctionManager(store, nil, logger.NewNop())
	s := NewCronAuctionScheduler(store.Jobs(), am, nil, "instance-1", "@every 1s", logger.NewNop())

	seedListing(t, store.Store, "lst_1", "seller", "10.00")
	addJob(t, store.Store, "job_1", "lst_1", "seller", time.Now().Add(-time.Second))

	require.NoError(t, s.Start(ctx))
	require.Eventually(t, func() bool {
		listing, err := store.Listings().GetListing(ctx, "lst_1")
		return err == nil && !listing.Active
	}, 5*time.Second, 50*time.Millisecond)
	require.NoError(t, s.Stop())
	require.Empty(t, pendingJobIDs(t, store.Store))
}

func TestScheduler_BadSpec(t *testing.T) {
	store := memory.NewStore()
	s := NewCronAuctionScheduler(store.Jobs(), nil, nil, "instance-1", "every now and then", logger.NewNop())
	require.Error(t, s.Start(context.Background()))
}
