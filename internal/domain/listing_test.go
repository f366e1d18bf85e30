package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNormalizeListing(t *testing.T) {
	inactive := false

	tests := []struct {
		name    string
		in      NewListing
		check   func(t *testing.T, d ListingDraft)
		wantErr bool
	}{
		{
			name: "defaults",
			in:   NewListing{Title: " Lamp ", StartingPrice: "8"},
			check: func(t *testing.T, d ListingDraft) {
				require.Equal(t, "Lamp", d.Title)
				require.Equal(t, DefaultCategoryName, d.CategoryName)
				require.True(t, d.Active)
				require.Equal(t, "8.00", FormatAmount(d.StartingPrice))
			},
		},
		{
			name: "explicit_inactive",
			in:   NewListing{Title: "Lamp", StartingPrice: "8", Active: &inactive, Category: "Home"},
			check: func(t *testing.T, d ListingDraft) {
				require.False(t, d.Active)
				require.Equal(t, "Home", d.CategoryName)
			},
		},
		{
			name: "title_at_limit",
			in:   NewListing{Title: strings.Repeat("ü", MaxTitleLength), StartingPrice: "1"},
		},
		{name: "empty_title", in: NewListing{Title: " ", StartingPrice: "1"}, wantErr: true},
		{name: "title_too_long", in: NewListing{Title: strings.Repeat("a", MaxTitleLength+1), StartingPrice: "1"}, wantErr: true},
		{
			name:    "description_too_long",
			in:      NewListing{Title: "a", Description: strings.Repeat("d", MaxDescriptionLength+1), StartingPrice: "1"},
			wantErr: true,
		},
		{name: "missing_price", in: NewListing{Title: "a"}, wantErr: true},
		{name: "zero_price", in: NewListing{Title: "a", StartingPrice: "0"}, wantErr: true},
		{name: "relative_image", in: NewListing{Title: "a", StartingPrice: "1", ImageURL: "/img.png"}, wantErr: true},
		{
			name: "https_image",
			in:   NewListing{Title: "a", StartingPrice: "1", ImageURL: "https://cdn.example.com/a.png"},
			check: func(t *testing.T, d ListingDraft) {
				require.Equal(t, "https://cdn.example.com/a.png", d.ImageURL)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NormalizeListing(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidListing)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, d)
			}
		})
	}
}

func TestCloseListing(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("winner", func(t *testing.T) {
		l := &Listing{ID: "lst_1", OwnerID: "seller", StartingPrice: decimal.RequireFromString("50"), Active: true}
		outcome := CloseListing(l, &Bid{BidderID: "bob", Amount: decimal.RequireFromString("120")}, now)

		require.False(t, l.Active)
		require.Equal(t, ListingClosed, l.Status())
		require.Equal(t, "bob", l.OwnerID)
		require.Equal(t, "120.00", FormatAmount(l.StartingPrice))
		require.Equal(t, now, l.UpdatedAt)
		require.True(t, outcome.HasWinner())
		require.Equal(t, "closed, new owner = bob", outcome.Message())
	})

	t.Run("no_winner", func(t *testing.T) {
		l := &Listing{ID: "lst_1", OwnerID: "seller", StartingPrice: decimal.RequireFromString("50"), Active: true}
		outcome := CloseListing(l, nil, now)

		require.False(t, l.Active)
		require.Equal(t, "seller", l.OwnerID)
		require.False(t, outcome.HasWinner())
		require.Equal(t, "50.00", FormatAmount(outcome.Price))
	})
}

func TestReactivate(t *testing.T) {
	now := time.Now()
	l := &Listing{Active: false}
	require.True(t, l.Reactivate(now))
	require.Equal(t, "open", l.Status().String())
	require.False(t, l.Reactivate(now.Add(time.Hour)))
	require.Equal(t, now, l.UpdatedAt)
}
