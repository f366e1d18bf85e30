package services

import (
	"auction-marketplace/internal/domain"

	"github.com/shopspring/decimal"
)

// RuleBidValidator holds the stateless bid rules. The rate limit is
// checked by BidService because it needs the counter store.
type RuleBidValidator struct{}

func NewRuleBidValidator() *RuleBidValidator {
	return &RuleBidValidator{}
}

// ValidateListing applies the listing rules: the auction must be open and
// the bidder must not own it.
func (v *RuleBidValidator) ValidateListing(listing *domain.Listing, userID string) error {
	if !listing.Active {
		return domain.ErrAuctionClosed
	}
	if listing.OwnerID == userID {
		return domain.ErrSelfListingBid
	}
	return nil
}

func (v *RuleBidValidator) ParseAmount(raw string) (decimal.Decimal, error) {
	return domain.ParseAmount(raw)
}

// ValidateAmount compares amount with the current highest bid, or with the
// starting price when there is none. Both comparisons are strict.
func (v *RuleBidValidator) ValidateAmount(listing *domain.Listing, highest *domain.Bid, userID string, amount decimal.Decimal) error {
	if highest == nil {
		if !amount.GreaterThan(listing.StartingPrice) {
			return domain.ErrBelowStartingPrice
		}
		return nil
	}
	if highest.BidderID == userID {
		return domain.ErrAlreadyHighestBidder
	}
	if !amount.GreaterThan(highest.Amount) {
		return domain.ErrBelowCurrentBid
	}
	return nil
}
