package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	DefaultCategoryName  = "Other"
	MaxTitleLength       = 50
	MaxDescriptionLength = 500
	MaxCommentLength     = 500
)

var MinStartingPrice = decimal.RequireFromString("0.01")

// NewListing is the raw input for listing creation.
type NewListing struct {
	Title         string
	Description   string
	StartingPrice string
	ImageURL      string
	Category      string
	// Active defaults to true when nil.
	Active *bool
}

// ListingDraft is a NewListing after normalization, ready to persist.
type ListingDraft struct {
	Title         string
	Description   string
	StartingPrice decimal.Decimal
	ImageURL      string
	CategoryName  string
	Active        bool
}

// NormalizeListing applies the defaults and field limits every listing
// must satisfy before it is stored.
func NormalizeListing(in NewListing) (ListingDraft, error) {
	draft := ListingDraft{
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		ImageURL:     strings.TrimSpace(in.ImageURL),
		CategoryName: strings.TrimSpace(in.Category),
		Active:       true,
	}
	if in.Active != nil {
		draft.Active = *in.Active
	}
	if draft.CategoryName == "" {
		draft.CategoryName = DefaultCategoryName
	}

	if draft.Title == "" {
		return ListingDraft{}, fmt.Errorf("%w: title is required", ErrInvalidListing)
	}
	if utf8.RuneCountInString(draft.Title) > MaxTitleLength {
		return ListingDraft{}, fmt.Errorf("%w: title longer than %d characters", ErrInvalidListing, MaxTitleLength)
	}
	if utf8.RuneCountInString(draft.Description) > MaxDescriptionLength {
		return ListingDraft{}, fmt.Errorf("%w: description longer than %d characters", ErrInvalidListing, MaxDescriptionLength)
	}

	price, err := ParseAmount(in.StartingPrice)
	if err != nil {
		return ListingDraft{}, fmt.Errorf("%w: starting price: %w", ErrInvalidListing, err)
	}
	if price.LessThan(MinStartingPrice) {
		return ListingDraft{}, fmt.Errorf("%w: starting price below %s", ErrInvalidListing, FormatAmount(MinStartingPrice))
	}
	draft.StartingPrice = price

	if draft.ImageURL != "" {
		if err := validateImageURL(draft.ImageURL); err != nil {
			return ListingDraft{}, fmt.Errorf("%w: image url: %w", ErrInvalidListing, err)
		}
	}

	return draft, nil
}

func validateImageURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("scheme must be http or https")
	}
	if u.Host == "" {
		return errors.New("host is required")
	}
	return nil
}

// CloseListing applies the Open -> Closed transition to listing. With a
// highest bid the bidder becomes the owner and the bid amount the new price.
// Bid purge and notification are left to the caller, inside the same
// transaction.
func CloseListing(listing *Listing, highest *Bid, now time.Time) *CloseOutcome {
	listing.Active = false
	listing.UpdatedAt = now

	outcome := &CloseOutcome{ListingID: listing.ID, Price: listing.StartingPrice}
	if highest == nil {
		return outcome
	}

	listing.OwnerID = highest.BidderID
	listing.StartingPrice = highest.Amount
	outcome.WinnerID = highest.BidderID
	outcome.Price = highest.Amount
	return outcome
}

// Reactivate flips a closed listing back to open. It reports whether
// anything changed.
func (l *Listing) Reactivate(now time.Time) bool {
	if l.Active {
		return false
	}
	l.Active = true
	l.UpdatedAt = now
	return true
}
