package services

import (
	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/domain/repositories"
	"auction-marketplace/pkg/logger"
	"auction-marketplace/pkg/utils"
	"context"
	"errors"
	"fmt"
	"time"
)

type ListingService struct {
	store repositories.TxStore
	now   func() time.Time
	log   logger.Logger
}

func NewListingService(store repositories.TxStore, log logger.Logger) *ListingService {
	return &ListingService{store: store, now: time.Now, log: log}
}

// CreateListing normalizes in and stores the listing under ownerID. A
// missing category is created on first use.
func (s *ListingService) CreateListing(ctx context.Context, ownerID string, in domain.NewListing) (*domain.Listing, error) {
	if ownerID == "" {
		return nil, domain.ErrUnauthenticated
	}
	draft, err := domain.NormalizeListing(in)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	listing := &domain.Listing{
		ID:            utils.GenerateID("lst"),
		OwnerID:       ownerID,
		Title:         draft.Title,
		Description:   draft.Description,
		StartingPrice: draft.StartingPrice,
		ImageURL:      draft.ImageURL,
		Active:        draft.Active,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		category, err := getOrCreateCategory(ctx, tx, draft.CategoryName, now)
		if err != nil {
			return err
		}
		listing.CategoryID = category.ID
		return tx.Listings().CreateListing(ctx, listing)
	})
	if err != nil {
		return nil, fmt.Errorf("service: create listing: %w", err)
	}

	s.log.Info("Listing created", "listing_id", listing.ID, "owner_id", ownerID, "category", draft.CategoryName)
	return listing, nil
}

func getOrCreateCategory(ctx context.Context, tx repositories.Store, name string, now time.Time) (*domain.Category, error) {
	category, err := tx.Categories().GetCategoryByName(ctx, name)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, domain.ErrCategoryNotFound) {
		return nil, err
	}

	category = &domain.Category{ID: utils.GenerateID("cat"), Name: name, CreatedAt: now}
	if err := tx.Categories().CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// GetListing returns the listing with its bids, highest first, and
// comments. viewerID may be empty.
func (s *ListingService) GetListing(ctx context.Context, viewerID, listingID string) (*domain.ListingDetail, error) {
	listing, err := s.store.Listings().GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	bids, err := s.store.Bids().ListBids(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("service: list bids: %w", err)
	}
	comments, err := s.store.Comments().ListComments(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("service: list comments: %w", err)
	}

	detail := &domain.ListingDetail{
		ListingSummary: domain.ListingSummary{Listing: listing},
		Bids:           bids,
		Comments:       comments,
	}
	if len(bids) > 0 {
		detail.HighestBid = bids[0]
	}
	if viewerID != "" {
		detail.Watching, err = s.store.Watchlist().IsWatching(ctx, viewerID, listingID)
		if err != nil {
			return nil, fmt.Errorf("service: watchlist lookup: %w", err)
		}
	}
	return detail, nil
}

func (s *ListingService) ActiveListings(ctx context.Context, categoryName string) ([]domain.ListingSummary, error) {
	listings, err := s.store.Listings().ListActiveListings(ctx, categoryName)
	if err != nil {
		return nil, fmt.Errorf("service: active listings: %w", err)
	}
	return s.summarize(ctx, listings)
}

func (s *ListingService) ListingsByOwner(ctx context.Context, ownerID string) ([]domain.ListingSummary, error) {
	if ownerID == "" {
		return nil, domain.ErrUnauthenticated
	}
	listings, err := s.store.Listings().ListListingsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("service: owner listings: %w", err)
	}
	return s.summarize(ctx, listings)
}

// CategoryCounts returns active listings per category and their total.
func (s *ListingService) CategoryCounts(ctx context.Context) (map[string]int, int, error) {
	counts, err := s.store.Listings().CountActiveByCategory(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("service: category counts: %w", err)
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return counts, total, nil
}

func (s *ListingService) summarize(ctx context.Context, listings []*domain.Listing) ([]domain.ListingSummary, error) {
	out := make([]domain.ListingSummary, 0, len(listings))
	for _, l := range listings {
		highest, err := s.store.Bids().GetHighestBid(ctx, l.ID)
		if err != nil && !errors.Is(err, domain.ErrNoBids) {
			return nil, fmt.Errorf("service: highest bid for %s: %w", l.ID, err)
		}
		out = append(out, domain.ListingSummary{Listing: l, HighestBid: highest})
	}
	return out, nil
}
