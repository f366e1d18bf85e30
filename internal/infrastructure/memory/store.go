package memory

import (
	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/domain/repositories"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// DefaultCategoryID is the id of the category every new store is seeded with.
const DefaultCategoryID = "cat_other"

type state struct {
	listings      map[string]domain.Listing
	categories    map[string]domain.Category // key: name
	bids          map[string][]domain.Bid    // key: listingID, insertion order
	notifications map[string][]domain.Notification
	watchlist     map[string]map[string]time.Time // key: userID -> listingID -> added at
	comments      map[string][]domain.Comment
	jobs          map[string]domain.ScheduledJob
}

func newState() *state {
	return &state{
		listings:      make(map[string]domain.Listing),
		categories:    make(map[string]domain.Category),
		bids:          make(map[string][]domain.Bid),
		notifications: make(map[string][]domain.Notification),
		watchlist:     make(map[string]map[string]time.Time),
		comments:      make(map[string][]domain.Comment),
		jobs:          make(map[string]domain.ScheduledJob),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.listings {
		c.listings[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.bids {
		c.bids[k] = append([]domain.Bid(nil), v...)
	}
	for k, v := range s.notifications {
		c.notifications[k] = append([]domain.Notification(nil), v...)
	}
	for user, entries := range s.watchlist {
		m := make(map[string]time.Time, len(entries))
		for k, v := range entries {
			m[k] = v
		}
		c.watchlist[user] = m
	}
	for k, v := range s.comments {
		c.comments[k] = append([]domain.Comment(nil), v...)
	}
	for k, v := range s.jobs {
		c.jobs[k] = v
	}
	return c
}

// Store is a concurrency-safe in-memory implementation of repositories.TxStore.
// A transaction holds the store lock for its whole duration and works on a
// copy of the data that replaces the original only when fn succeeds.
type Store struct {
	mu sync.Mutex
	st *state
}

func NewStore() *Store {
	st := newState()
	st.categories[domain.DefaultCategoryName] = domain.Category{
		ID:        DefaultCategoryID,
		Name:      domain.DefaultCategoryName,
		CreatedAt: time.Now().UTC(),
	}
	return &Store{st: st}
}

type runner func(ctx context.Context, fn func(*state) error) error

func (s *Store) run(ctx context.Context, fn func(*state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

func (s *Store) Listings() repositories.ListingRepository { return &listingRepo{run: s.run} }
func (s *Store) Categories() repositories.CategoryRepository { return &categoryRepo{run: s.run} }
func (s *Store) Bids() repositories.BidRepository { return &bidRepo{run: s.run} }
func (s *Store) Notifications() repositories.NotificationRepository { return &notificationRepo{run: s.run} }
func (s *Store) Watchlist() repositories.WatchlistRepository { return &watchlistRepo{run: s.run} }
func (s *Store) Comments() repositories.CommentRepository { return &commentRepo{run: s.run} }
func (s *Store) Jobs() repositories.SchedulerRepository { return &jobRepo{run: s.run} }

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repositories.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	tx := &txStore{run: func(ctx context.Context, fn func(*state) error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(work)
	}}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.st = work
	return nil
}

// AddListing stores listing as is. This method is intended for tests only.
func (s *Store) AddListing(listing domain.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.listings[listing.ID] = listing
}

// BidHistory returns the stored bids of a listing in insertion order.
// This method is intended for tests only.
func (s *Store) BidHistory(listingID string) []domain.Bid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Bid(nil), s.st.bids[listingID]...)
}

type txStore struct {
	run runner
}

func (t *txStore) Listings() repositories.ListingRepository { return &listingRepo{run: t.run} }
func (t *txStore) Categories() repositories.CategoryRepository { return &categoryRepo{run: t.run} }
func (t *txStore) Bids() repositories.BidRepository { return &bidRepo{run: t.run} }
func (t *txStore) Notifications() repositories.NotificationRepository { return &notificationRepo{run: t.run} }
func (t *txStore) Watchlist() repositories.WatchlistRepository { return &watchlistRepo{run: t.run} }
func (t *txStore) Comments() repositories.CommentRepository { return &commentRepo{run: t.run} }
func (t *txStore) Jobs() repositories.SchedulerRepository { return &jobRepo{run: t.run} }

type listingRepo struct{ run runner }

func (r *listingRepo) CreateListing(ctx context.Context, listing *domain.Listing) error {
	return r.run(ctx, func(st *state) error {
		if _, ok := st.listings[listing.ID]; ok {
			return fmt.Errorf("create listing %s: duplicate id", listing.ID)
		}
		st.listings[listing.ID] = *listing
		return nil
	})
}

func (r *listingRepo) GetListing(ctx context.Context, listingID string) (*domain.Listing, error) {
	var out *domain.Listing
	err := r.run(ctx, func(st *state) error {
		l, ok := st.listings[listingID]
		if !ok {
			return fmt.Errorf("get listing %s: %w", listingID, domain.ErrListingNotFound)
		}
		out = &l
		return nil
	})
	return out, err
}

// GetListingForUpdate needs no row lock here: the transaction already holds
// the store lock.
func (r *listingRepo) GetListingForUpdate(ctx context.Context, listingID string) (*domain.Listing, error) {
	return r.GetListing(ctx, listingID)
}

func (r *listingRepo) UpdateListing(ctx context.Context, listing *domain.Listing) error {
	return r.run(ctx, func(st *state) error {
		if _, ok := st.listings[listing.ID]; !ok {
			return fmt.Errorf("update listing %s: %w", listing.ID, domain.ErrListingNotFound)
		}
		st.listings[listing.ID] = *listing
		return nil
	})
}

func (r *listingRepo) ListActiveListings(ctx context.Context, categoryName string) ([]*domain.Listing, error) {
	var out []*domain.Listing
	err := r.run(ctx, func(st *state) error {
		categoryID := ""
		if categoryName != "" {
			c, ok := st.categories[categoryName]
			if !ok {
				return nil
			}
			categoryID = c.ID
		}
		out = st.filterListings(func(l domain.Listing) bool {
			return l.Active && (categoryID == "" || l.CategoryID == categoryID)
		})
		return nil
	})
	return out, err
}

func (r *listingRepo) ListListingsByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	var out []*domain.Listing
	err := r.run(ctx, func(st *state) error {
		out = st.filterListings(func(l domain.Listing) bool { return l.OwnerID == ownerID })
		return nil
	})
	return out, err
}

func (r *listingRepo) CountActiveByCategory(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	err := r.run(ctx, func(st *state) error {
		names := make(map[string]string, len(st.categories))
		for name, c := range st.categories {
			counts[name] = 0
			names[c.ID] = name
		}
		for _, l := range st.listings {
			if name, ok := names[l.CategoryID]; ok && l.Active {
				counts[name]++
			}
		}
		return nil
	})
	return counts, err
}

// filterListings returns matching listings, newest first.
func (st *state) filterListings(keep func(domain.Listing) bool) []*domain.Listing {
	var out []*domain.Listing
	for _, l := range st.listings {
		if keep(l) {
			l := l
			out = append(out, &l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type categoryRepo struct{ run runner }

func (r *categoryRepo) GetCategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	var out *domain.Category
	err := r.run(ctx, func(st *state) error {
		c, ok := st.categories[name]
		if !ok {
			return fmt.Errorf("get category %q: %w", name, domain.ErrCategoryNotFound)
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *categoryRepo) CreateCategory(ctx context.Context, category *domain.Category) error {
	return r.run(ctx, func(st *state) error {
		if _, ok := st.categories[category.Name]; ok {
			return fmt.Errorf("create category %q: already exists", category.Name)
		}
		st.categories[category.Name] = *category
		return nil
	})
}

type bidRepo struct{ run runner }

func (r *bidRepo) SaveBid(ctx context.Context, bid *domain.Bid) error {
	return r.run(ctx, func(st *state) error {
		if _, ok := st.listings[bid.ListingID]; !ok {
			return fmt.Errorf("save bid for listing %s: %w", bid.ListingID, domain.ErrListingNotFound)
		}
		st.bids[bid.ListingID] = append(st.bids[bid.ListingID], *bid)
		return nil
	})
}

func (r *bidRepo) GetHighestBid(ctx context.Context, listingID string) (*domain.Bid, error) {
	var out *domain.Bid
	err := r.run(ctx, func(st *state) error {
		bids := st.bids[listingID]
		if len(bids) == 0 {
			return domain.ErrNoBids
		}
		highest := bids[0]
		for _, b := range bids[1:] {
			if b.Amount.GreaterThan(highest.Amount) {
				highest = b
			}
		}
		out = &highest
		return nil
	})
	return out, err
}

func (r *bidRepo) ListBids(ctx context.Context, listingID string) ([]*domain.Bid, error) {
	var out []*domain.Bid
	err := r.run(ctx, func(st *state) error {
		for _, b := range st.bids[listingID] {
			b := b
			out = append(out, &b)
		}
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Amount.GreaterThan(out[j].Amount)
		})
		return nil
	})
	return out, err
}

func (r *bidRepo) DeleteBidsForListing(ctx context.Context, listingID string) (int64, error) {
	var n int64
	err := r.run(ctx, func(st *state) error {
		n = int64(len(st.bids[listingID]))
		delete(st.bids, listingID)
		return nil
	})
	return n, err
}

type notificationRepo struct{ run runner }

func (r *notificationRepo) CreateNotification(ctx context.Context, n *domain.Notification) error {
	return r.run(ctx, func(st *state) error {
		st.notifications[n.UserID] = append(st.notifications[n.UserID], *n)
		return nil
	})
}

// ListNotifications returns the user's notifications, newest first.
func (r *notificationRepo) ListNotifications(ctx context.Context, userID string) ([]*domain.Notification, error) {
	var out []*domain.Notification
	err := r.run(ctx, func(st *state) error {
		list := st.notifications[userID]
		for i := len(list) - 1; i >= 0; i-- {
			n := list[i]
			out = append(out, &n)
		}
		return nil
	})
	return out, err
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	var changed int64
	err := r.run(ctx, func(st *state) error {
		list := st.notifications[userID]
		for i := range list {
			if !list[i].IsRead {
				list[i].IsRead = true
				changed++
			}
		}
		return nil
	})
	return changed, err
}

func (r *notificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.run(ctx, func(st *state) error {
		for _, n := range st.notifications[userID] {
			if !n.IsRead {
				count++
			}
		}
		return nil
	})
	return count, err
}

type watchlistRepo struct{ run runner }

func (r *watchlistRepo) AddToWatchlist(ctx context.Context, entry *domain.WatchlistEntry) error {
	return r.run(ctx, func(st *state) error {
		entries, ok := st.watchlist[entry.UserID]
		if !ok {
			entries = make(map[string]time.Time)
			st.watchlist[entry.UserID] = entries
		}
		if _, exists := entries[entry.ListingID]; !exists {
			entries[entry.ListingID] = entry.CreatedAt
		}
		return nil
	})
}

func (r *watchlistRepo) RemoveFromWatchlist(ctx context.Context, userID, listingID string) error {
	return r.run(ctx, func(st *state) error {
		delete(st.watchlist[userID], listingID)
		return nil
	})
}

func (r *watchlistRepo) IsWatching(ctx context.Context, userID, listingID string) (bool, error) {
	var watching bool
	err := r.run(ctx, func(st *state) error {
		_, watching = st.watchlist[userID][listingID]
		return nil
	})
	return watching, err
}

// ListWatchedListings returns the watched listings, most recently added first.
func (r *watchlistRepo) ListWatchedListings(ctx context.Context, userID string) ([]*domain.Listing, error) {
	var out []*domain.Listing
	err := r.run(ctx, func(st *state) error {
		entries := st.watchlist[userID]
		for id := range entries {
			if l, ok := st.listings[id]; ok {
				out = append(out, &l)
			}
		}
		sort.Slice(out, func(i, j int) bool {
			ai, aj := entries[out[i].ID], entries[out[j].ID]
			if !ai.Equal(aj) {
				return ai.After(aj)
			}
			return out[i].ID < out[j].ID
		})
		return nil
	})
	return out, err
}

type commentRepo struct{ run runner }

func (r *commentRepo) CreateComment(ctx context.Context, c *domain.Comment) error {
	return r.run(ctx, func(st *state) error {
		if _, ok := st.listings[c.ListingID]; !ok {
			return fmt.Errorf("create comment on listing %s: %w", c.ListingID, domain.ErrListingNotFound)
		}
		st.comments[c.ListingID] = append(st.comments[c.ListingID], *c)
		return nil
	})
}

// ListComments returns the listing's comments, newest first.
func (r *commentRepo) ListComments(ctx context.Context, listingID string) ([]*domain.Comment, error) {
	var out []*domain.Comment
	err := r.run(ctx, func(st *state) error {
		list := st.comments[listingID]
		for i := len(list) - 1; i >= 0; i-- {
			c := list[i]
			out = append(out, &c)
		}
		return nil
	})
	return out, err
}

type jobRepo struct{ run runner }

func (r *jobRepo) CreateJob(ctx context.Context, job *domain.ScheduledJob) error {
	return r.run(ctx, func(st *state) error {
		st.jobs[job.ID] = *job
		return nil
	})
}

func (r *jobRepo) GetPendingJobs(ctx context.Context, before time.Time) ([]*domain.ScheduledJob, error) {
	var out []*domain.ScheduledJob
	err := r.run(ctx, func(st *state) error {
		for _, j := range st.jobs {
			if j.Status == domain.JobPending && !j.RunAt.After(before) {
				j := j
				out = append(out, &j)
			}
		}
		sort.Slice(out, func(i, j int) bool {
			if !out[i].RunAt.Equal(out[j].RunAt) {
				return out[i].RunAt.Before(out[j].RunAt)
			}
			return out[i].ID < out[j].ID
		})
		return nil
	})
	return out, err
}

func (r *jobRepo) UpdateJobStatus(ctx context.Context, jobID string, status domain.JobStatus) error {
	return r.run(ctx, func(st *state) error {
		j, ok := st.jobs[jobID]
		if !ok {
			return fmt.Errorf("update job %s: not found", jobID)
		}
		j.Status = status
		st.jobs[jobID] = j
		return nil
	})
}

func (r *jobRepo) CancelJobsForListing(ctx context.Context, listingID string) error {
	return r.run(ctx, func(st *state) error {
		for id, j := range st.jobs {
			if j.ListingID == listingID && j.Status == domain.JobPending {
				j.Status = domain.JobCancelled
				st.jobs[id] = j
			}
		}
		return nil
	})
}
