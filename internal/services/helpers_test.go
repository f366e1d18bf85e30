package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/domain/repositories"
	"auction-marketplace/internal/infrastructure/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var errStorage = errors.New("storage unavailable")

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func seedListing(t *testing.T, store *memory.Store, id, owner, price string) {
	t.Helper()
	now := time.Now().UTC()
	store.AddListing(domain.Listing{
		ID:            id,
		OwnerID:       owner,
		Title:         "Item " + id,
		StartingPrice: decimal.RequireFromString(price),
		Active:        true,
		CategoryID:    memory.DefaultCategoryID,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

func amountsOf(bids []domain.Bid) []string {
	out := make([]string, 0, len(bids))
	for _, b := range bids {
		out = append(out, domain.FormatAmount(b.Amount))
	}
	return out
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*domain.BidEvent
}

func (p *recordingPublisher) PublishBidEvent(ctx context.Context, event *domain.BidEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Events() []*domain.BidEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*domain.BidEvent(nil), p.events...)
}

// failingStore wraps a store and fails chosen operations inside
// transactions.
type failingStore struct {
	*memory.Store
	failSaveBid      bool
	failDelete       bool
	failNotification bool
	failCommit       bool
}

func (f *failingStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repositories.Store) error) error {
	err := f.Store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		if err := fn(ctx, &failingTx{Store: tx, parent: f}); err != nil {
			return err
		}
		if f.failCommit {
			return errStorage
		}
		return nil
	})
	if err != nil && f.failCommit && errors.Is(err, errStorage) {
		return errors.Join(repositories.ErrCommitFailed, err)
	}
	return err
}

type failingTx struct {
	repositories.Store
	parent *failingStore
}

func (t *failingTx) Bids() repositories.BidRepository {
	return &failingBids{BidRepository: t.Store.Bids(), parent: t.parent}
}

func (t *failingTx) Notifications() repositories.NotificationRepository {
	return &failingNotifications{NotificationRepository: t.Store.Notifications(), parent: t.parent}
}

type failingBids struct {
	repositories.BidRepository
	parent *failingStore
}

func (b *failingBids) SaveBid(ctx context.Context, bid *domain.Bid) error {
	if b.parent.failSaveBid {
		return errStorage
	}
	return b.BidRepository.SaveBid(ctx, bid)
}

func (b *failingBids) DeleteBidsForListing(ctx context.Context, listingID string) (int64, error) {
	if b.parent.failDelete {
		return 0, errStorage
	}
	return b.BidRepository.DeleteBidsForListing(ctx, listingID)
}

type failingNotifications struct {
	repositories.NotificationRepository
	parent *failingStore
}

func (n *failingNotifications) CreateNotification(ctx context.Context, notification *domain.Notification) error {
	if n.parent.failNotification {
		return errStorage
	}
	return n.NotificationRepository.CreateNotification(ctx, notification)
}

func requireNotifications(t *testing.T, store repositories.Store, userID string, want int) {
	t.Helper()
	n, err := store.Notifications().CountUnread(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, want, n)
}
