package mysql

import (
	"auction-marketplace/internal/domain/repositories"
	"context"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Store hands out repositories bound either to the pool or to one open
// transaction.
type Store struct {
	db *sqlx.DB
	q  sqlx.ExtContext
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, q: db}
}

func (s *Store) Listings() repositories.ListingRepository {
	return NewMySQLListingRepository(s.q)
}

func (s *Store) Categories() repositories.CategoryRepository {
	return NewMySQLCategoryRepository(s.q)
}

func (s *Store) Bids() repositories.BidRepository {
	return NewMySQLBidRepository(s.q)
}

func (s *Store) Notifications() repositories.NotificationRepository {
	return NewMySQLNotificationRepository(s.q)
}

func (s *Store) Watchlist() repositories.WatchlistRepository {
	return NewMySQLWatchlistRepository(s.q)
}

func (s *Store) Comments() repositories.CommentRepository {
	return NewMySQLCommentRepository(s.q)
}

func (s *Store) Jobs() repositories.SchedulerRepository {
	return NewMySQLSchedulerRepository(s.q)
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repositories.Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(ctx, &Store{db: s.db, q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", repositories.ErrCommitFailed, err)
	}
	return nil
}
