package mysql

import (
	"auction-marketplace/internal/domain"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const listingColumns = `id, owner_id, title, description, starting_price, image_url, is_active, category_id, created_at, updated_at`

const prefixedListingColumns = `l.id, l.owner_id, l.title, l.description, l.starting_price, l.image_url, l.is_active, l.category_id, l.created_at, l.updated_at`

type MySQLListingRepository struct {
	q sqlx.ExtContext
}

func NewMySQLListingRepository(q sqlx.ExtContext) *MySQLListingRepository {
	return &MySQLListingRepository{q: q}
}

func (r *MySQLListingRepository) CreateListing(ctx context.Context, listing *domain.Listing) error {
	query := `
        INSERT INTO listings (id, owner_id, title, description, starting_price, image_url, is_active, category_id, created_at, updated_at)
        VALUES (:id, :owner_id, :title, :description, :starting_price, :image_url, :is_active, :category_id, :created_at, :updated_at)
    `
	if _, err := sqlx.NamedExecContext(ctx, r.q, query, listing); err != nil {
		return fmt.Errorf("CreateListing: %w", err)
	}
	return nil
}

func (r *MySQLListingRepository) GetListing(ctx context.Context, listingID string) (*domain.Listing, error) {
	return r.getListing(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = ?`, listingID)
}

func (r *MySQLListingRepository) GetListingForUpdate(ctx context.Context, listingID string) (*domain.Listing, error) {
	return r.getListing(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = ? FOR UPDATE`, listingID)
}

func (r *MySQLListingRepository) getListing(ctx context.Context, query, listingID string) (*domain.Listing, error) {
	var listing domain.Listing
	if err := sqlx.GetContext(ctx, r.q, &listing, query, listingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get listing %s: %w", listingID, domain.ErrListingNotFound)
		}
		return nil, fmt.Errorf("get listing %s: %w", listingID, err)
	}
	return &listing, nil
}

func (r *MySQLListingRepository) UpdateListing(ctx context.Context, listing *domain.Listing) error {
	query := `
        UPDATE listings SET
            owner_id       = :owner_id,
            title          = :title,
            description    = :description,
            starting_price = :starting_price,
            image_url      = :image_url,
            is_active      = :is_active,
            category_id    = :category_id,
            updated_at     = :updated_at
        WHERE id = :id
    `
	res, err := sqlx.NamedExecContext(ctx, r.q, query, listing)
	if err != nil {
		return fmt.Errorf("UpdateListing: %w", err)
	}
	// MySQL reports 0 affected rows when nothing changed, so only a
	// missing row is an error here.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.GetListing(ctx, listing.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *MySQLListingRepository) ListActiveListings(ctx context.Context, categoryName string) ([]*domain.Listing, error) {
	var (
		listings []*domain.Listing
		err      error
	)
	if categoryName == "" {
		err = sqlx.SelectContext(ctx, r.q, &listings, `
            SELECT `+listingColumns+` FROM listings
            WHERE is_active = TRUE
            ORDER BY created_at DESC
        `)
	} else {
		err = sqlx.SelectContext(ctx, r.q, &listings, `
            SELECT `+prefixedListingColumns+` FROM listings l
            JOIN categories c ON c.id = l.category_id
            WHERE l.is_active = TRUE AND c.name = ?
            ORDER BY l.created_at DESC
        `, categoryName)
	}
	if err != nil {
		return nil, fmt.Errorf("ListActiveListings: %w", err)
	}
	return listings, nil
}

func (r *MySQLListingRepository) ListListingsByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	var listings []*domain.Listing
	err := sqlx.SelectContext(ctx, r.q, &listings, `
        SELECT `+listingColumns+` FROM listings
        WHERE owner_id = ?
        ORDER BY created_at DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ListListingsByOwner: %w", err)
	}
	return listings, nil
}

func (r *MySQLListingRepository) CountActiveByCategory(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Name  string `db:"name"`
		Total int    `db:"total"`
	}
	err := sqlx.SelectContext(ctx, r.q, &rows, `
        SELECT c.name AS name, COUNT(l.id) AS total
        FROM categories c
        LEFT JOIN listings l ON l.category_id = c.id AND l.is_active = TRUE
        GROUP BY c.id, c.name
    `)
	if err != nil {
		return nil, fmt.Errorf("CountActiveByCategory: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Name] = row.Total
	}
	return counts, nil
}

type MySQLCategoryRepository struct {
	q sqlx.ExtContext
}

func NewMySQLCategoryRepository(q sqlx.ExtContext) *MySQLCategoryRepository {
	return &MySQLCategoryRepository{q: q}
}

func (r *MySQLCategoryRepository) GetCategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	var category domain.Category
	err := sqlx.GetContext(ctx, r.q, &category, `SELECT id, name, created_at FROM categories WHERE name = ?`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get category %q: %w", name, domain.ErrCategoryNotFound)
		}
		return nil, fmt.Errorf("get category %q: %w", name, err)
	}
	return &category, nil
}

func (r *MySQLCategoryRepository) CreateCategory(ctx context.Context, category *domain.Category) error {
	_, err := sqlx.NamedExecContext(ctx, r.q,
		`INSERT INTO categories (id, name, created_at) VALUES (:id, :name, :created_at)`, category)
	if err != nil {
		return fmt.Errorf("CreateCategory: %w", err)
	}
	return nil
}
