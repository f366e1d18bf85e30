package repositories

import (
	"context"
	"errors"
)

// ErrCommitFailed wraps a failed transaction commit. Work done inside the
// transaction must be treated as not applied.
var ErrCommitFailed = errors.New("commit transaction")

type Store interface {
	Listings() ListingRepository
	Categories() CategoryRepository
	Bids() BidRepository
	Notifications() NotificationRepository
	Watchlist() WatchlistRepository
	Comments() CommentRepository
	Jobs() SchedulerRepository
}

type Transactor interface {
	// WithinTx runs fn against a transactional Store. A non-nil error from
	// fn rolls everything back.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

type TxStore interface {
	Store
	Transactor
}
