package mysql

import (
	"context"
	"regexp"
	"testing"
	"time"

	"auction-marketplace/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var bidCols = []string{"id", "listing_id", "bidder_id", "amount", "created_at", "updated_at"}

func TestGetHighestBid(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY amount DESC, created_at ASC, id ASC")).
		WithArgs("lst_1").
		WillReturnRows(sqlmock.NewRows(bidCols).
			AddRow("bid_2", "lst_1", "bob", "120.00", now, now))

	bid, err := store.Bids().GetHighestBid(context.Background(), "lst_1")
	require.NoError(t, err)
	require.Equal(t, "bob", bid.BidderID)
	require.True(t, bid.Amount.Equal(decimal.RequireFromString("120")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetHighestBidNoBids(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM bids")).
		WithArgs("lst_1").
		WillReturnRows(sqlmock.NewRows(bidCols))

	_, err := store.Bids().GetHighestBid(context.Background(), "lst_1")
	require.ErrorIs(t, err, domain.ErrNoBids)
}

func TestDeleteBidsForListing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bids WHERE listing_id = ?")).
		WithArgs("lst_1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.Bids().DeleteBidsForListing(context.Background(), "lst_1")
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
}

func TestBidEventHistory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLBidEventRepository(sqlx.NewDb(db, "mysql"))
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return ts }

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bid_events")).
		WithArgs("lst_1", "bob", decimal.RequireFromString("60"), "bid_accepted", ts, ts).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.SaveBidEvent(context.Background(), &domain.BidEvent{
		Type:      domain.BidAccepted,
		ListingID: "lst_1",
		UserID:    "bob",
		Amount:    decimal.RequireFromString("60"),
		Timestamp: ts,
	}))

	mock.ExpectQuery(regexp.QuoteMeta("FROM bid_events")).
		WithArgs("lst_1", "bid_accepted").
		WillReturnRows(sqlmock.NewRows([]string{"listing_id", "user_id", "amount", "event_type", "timestamp"}).
			AddRow("lst_1", "bob", "60.00", "bid_accepted", ts))

	events, err := repo.GetBidHistory(context.Background(), "lst_1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, domain.BidAccepted, events[0].Type)
	require.True(t, events[0].Amount.Equal(decimal.RequireFromString("60")))
	require.NoError(t, mock.ExpectationsWereMet())
}
