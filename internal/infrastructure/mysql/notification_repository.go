package mysql

import (
	"auction-marketplace/internal/domain"
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type MySQLNotificationRepository struct {
	q sqlx.ExtContext
}

func NewMySQLNotificationRepository(q sqlx.ExtContext) *MySQLNotificationRepository {
	return &MySQLNotificationRepository{q: q}
}

func (r *MySQLNotificationRepository) CreateNotification(ctx context.Context, n *domain.Notification) error {
	query := `
        INSERT INTO notifications (id, user_id, listing_id, is_read, created_at)
        VALUES (:id, :user_id, :listing_id, :is_read, :created_at)
    `
	if _, err := sqlx.NamedExecContext(ctx, r.q, query, n); err != nil {
		return fmt.Errorf("CreateNotification: %w", err)
	}
	return nil
}

func (r *MySQLNotificationRepository) ListNotifications(ctx context.Context, userID string) ([]*domain.Notification, error) {
	query := `
        SELECT id, user_id, listing_id, is_read, created_at
        FROM notifications
        WHERE user_id = ?
        ORDER BY created_at DESC
    `
	var notifications []*domain.Notification
	if err := sqlx.SelectContext(ctx, r.q, &notifications, query, userID); err != nil {
		return nil, fmt.Errorf("ListNotifications: %w", err)
	}
	return notifications, nil
}

func (r *MySQLNotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res, err := r.q.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = ? AND is_read = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("MarkAllRead: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("MarkAllRead: %w", err)
	}
	return n, nil
}

func (r *MySQLNotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, r.q, &count, `SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("CountUnread: %w", err)
	}
	return count, nil
}

type MySQLWatchlistRepository struct {
	q sqlx.ExtContext
}

func NewMySQLWatchlistRepository(q sqlx.ExtContext) *MySQLWatchlistRepository {
	return &MySQLWatchlistRepository{q: q}
}

// AddToWatchlist is idempotent: watching an already watched listing is a no-op.
func (r *MySQLWatchlistRepository) AddToWatchlist(ctx context.Context, entry *domain.WatchlistEntry) error {
	query := `
        INSERT IGNORE INTO watchlist (user_id, listing_id, created_at)
        VALUES (:user_id, :listing_id, :created_at)
    `
	if _, err := sqlx.NamedExecContext(ctx, r.q, query, entry); err != nil {
		return fmt.Errorf("AddToWatchlist: %w", err)
	}
	return nil
}

func (r *MySQLWatchlistRepository) RemoveFromWatchlist(ctx context.Context, userID, listingID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM watchlist WHERE user_id = ? AND listing_id = ?`, userID, listingID)
	if err != nil {
		return fmt.Errorf("RemoveFromWatchlist: %w", err)
	}
	return nil
}

func (r *MySQLWatchlistRepository) IsWatching(ctx context.Context, userID, listingID string) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, r.q, &count, `SELECT COUNT(*) FROM watchlist WHERE user_id = ? AND listing_id = ?`, userID, listingID)
	if err != nil {
		return false, fmt.Errorf("IsWatching: %w", err)
	}
	return count > 0, nil
}

func (r *MySQLWatchlistRepository) ListWatchedListings(ctx context.Context, userID string) ([]*domain.Listing, error) {
	query := `
        SELECT ` + prefixedListingColumns + `
        FROM listings l
        JOIN watchlist w ON w.listing_id = l.id
        WHERE w.user_id = ?
        ORDER BY w.created_at DESC
    `
	var listings []*domain.Listing
	if err := sqlx.SelectContext(ctx, r.q, &listings, query, userID); err != nil {
		return nil, fmt.Errorf("ListWatchedListings: %w", err)
	}
	return listings, nil
}

type MySQLCommentRepository struct {
	q sqlx.ExtContext
}

func NewMySQLCommentRepository(q sqlx.ExtContext) *MySQLCommentRepository {
	return &MySQLCommentRepository{q: q}
}

func (r *MySQLCommentRepository) CreateComment(ctx context.Context, c *domain.Comment) error {
	query := `
        INSERT INTO comments (id, author_id, listing_id, body, created_at, updated_at)
        VALUES (:id, :author_id, :listing_id, :body, :created_at, :updated_at)
    `
	if _, err := sqlx.NamedExecContext(ctx, r.q, query, c); err != nil {
		return fmt.Errorf("CreateComment: %w", err)
	}
	return nil
}

func (r *MySQLCommentRepository) ListComments(ctx context.Context, listingID string) ([]*domain.Comment, error) {
	query := `
        SELECT id, author_id, listing_id, body, created_at, updated_at
        FROM comments
        WHERE listing_id = ?
        ORDER BY created_at DESC
    `
	var comments []*domain.Comment
	if err := sqlx.SelectContext(ctx, r.q, &comments, query, listingID); err != nil {
		return nil, fmt.Errorf("ListComments: %w", err)
	}
	return comments, nil
}
