package repositories

import (
	"auction-marketplace/internal/domain"
	"context"
)

type ListingRepository interface {
	CreateListing(ctx context.Context, listing *domain.Listing) error
	GetListing(ctx context.Context, listingID string) (*domain.Listing, error)
	// GetListingForUpdate loads the listing and holds its row lock until the
	// surrounding transaction ends.
	GetListingForUpdate(ctx context.Context, listingID string) (*domain.Listing, error)
	UpdateListing(ctx context.Context, listing *domain.Listing) error
	ListActiveListings(ctx context.Context, categoryName string) ([]*domain.Listing, error)
	ListListingsByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error)
	CountActiveByCategory(ctx context.Context) (map[string]int, error)
}

type CategoryRepository interface {
	GetCategoryByName(ctx context.Context, name string) (*domain.Category, error)
	CreateCategory(ctx context.Context, category *domain.Category) error
}
