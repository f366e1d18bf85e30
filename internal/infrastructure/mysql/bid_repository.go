package mysql

import (
	"auction-marketplace/internal/domain"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type MySQLBidRepository struct {
	q sqlx.ExtContext
}

func NewMySQLBidRepository(q sqlx.ExtContext) *MySQLBidRepository {
	return &MySQLBidRepository{q: q}
}

func (r *MySQLBidRepository) SaveBid(ctx context.Context, bid *domain.Bid) error {
	query := `
        INSERT INTO bids (id, listing_id, bidder_id, amount, created_at, updated_at)
        VALUES (:id, :listing_id, :bidder_id, :amount, :created_at, :updated_at)
    `
	if _, err := sqlx.NamedExecContext(ctx, r.q, query, bid); err != nil {
		return fmt.Errorf("SaveBid: %w", err)
	}
	return nil
}

func (r *MySQLBidRepository) GetHighestBid(ctx context.Context, listingID string) (*domain.Bid, error) {
	query := `
        SELECT id, listing_id, bidder_id, amount, created_at, updated_at
        FROM bids
        WHERE listing_id = ?
        ORDER BY amount DESC, created_at ASC, id ASC
        LIMIT 1
    `
	var bid domain.Bid
	if err := sqlx.GetContext(ctx, r.q, &bid, query, listingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNoBids
		}
		return nil, fmt.Errorf("GetHighestBid: %w", err)
	}
	return &bid, nil
}

func (r *MySQLBidRepository) ListBids(ctx context.Context, listingID string) ([]*domain.Bid, error) {
	query := `
        SELECT id, listing_id, bidder_id, amount, created_at, updated_at
        FROM bids
        WHERE listing_id = ?
        ORDER BY amount DESC, created_at ASC, id ASC
    `
	var bids []*domain.Bid
	if err := sqlx.SelectContext(ctx, r.q, &bids, query, listingID); err != nil {
		return nil, fmt.Errorf("ListBids: %w", err)
	}
	return bids, nil
}

func (r *MySQLBidRepository) DeleteBidsForListing(ctx context.Context, listingID string) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM bids WHERE listing_id = ?`, listingID)
	if err != nil {
		return 0, fmt.Errorf("DeleteBidsForListing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteBidsForListing: %w", err)
	}
	return n, nil
}

type MySQLBidEventRepository struct {
	q   sqlx.ExtContext
	now func() time.Time
}

func NewMySQLBidEventRepository(q sqlx.ExtContext) *MySQLBidEventRepository {
	return &MySQLBidEventRepository{q: q, now: time.Now}
}

func (r *MySQLBidEventRepository) SaveBidEvent(ctx context.Context, event *domain.BidEvent) error {
	query := `
        INSERT INTO bid_events (listing_id, user_id, amount, event_type, timestamp, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `
	_, err := r.q.ExecContext(ctx, query,
		event.ListingID, event.UserID, event.Amount,
		string(event.Type), event.Timestamp, r.now())
	if err != nil {
		return fmt.Errorf("SaveBidEvent: %w", err)
	}
	return nil
}

// GetBidHistory returns the accepted bids ever placed on the listing, oldest
// first. It is unaffected by the purge on close.
func (r *MySQLBidEventRepository) GetBidHistory(ctx context.Context, listingID string) ([]*domain.BidEvent, error) {
	query := `
        SELECT listing_id, user_id, amount, event_type, timestamp
        FROM bid_events
        WHERE listing_id = ? AND event_type = ?
        ORDER BY timestamp ASC
    `
	var rows []struct {
		ListingID string              `db:"listing_id"`
		UserID    string              `db:"user_id"`
		Amount    decimal.Decimal     `db:"amount"`
		Type      domain.BidEventType `db:"event_type"`
		Timestamp time.Time           `db:"timestamp"`
	}
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, listingID, string(domain.BidAccepted)); err != nil {
		return nil, fmt.Errorf("GetBidHistory: %w", err)
	}

	events := make([]*domain.BidEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, &domain.BidEvent{
			Type:      row.Type,
			ListingID: row.ListingID,
			UserID:    row.UserID,
			Amount:    row.Amount,
			Timestamp: row.Timestamp,
		})
	}
	return events, nil
}
