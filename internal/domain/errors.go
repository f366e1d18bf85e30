package domain

import "errors"

// Bid rejection reasons, in the order they are evaluated.
var (
	ErrAuctionClosed        = errors.New("auction is closed")
	ErrSelfListingBid       = errors.New("cannot bid on own listing")
	ErrInvalidAmount        = errors.New("invalid bid amount")
	ErrRateLimited          = errors.New("bid rate limit exceeded")
	ErrAlreadyHighestBidder = errors.New("already the highest bidder")
	ErrBelowStartingPrice   = errors.New("bid not above starting price")
	ErrBelowCurrentBid      = errors.New("bid not above current highest bid")
)

// ErrPersistence marks a storage failure. Nothing was applied and the
// operation is safe to retry.
var ErrPersistence = errors.New("could not process bid")

// Request-level errors
var (
	ErrListingNotFound  = errors.New("listing not found")
	ErrNotListingOwner  = errors.New("not the listing owner")
	ErrUnauthenticated  = errors.New("authentication required")
	ErrInvalidListing   = errors.New("invalid listing")
	ErrInvalidComment   = errors.New("invalid comment")
	ErrInvalidSchedule  = errors.New("invalid close schedule")
	ErrNoBids           = errors.New("no bids found for listing")
	ErrCategoryNotFound = errors.New("category not found")
)

var rejections = []error{
	ErrAuctionClosed,
	ErrSelfListingBid,
	ErrInvalidAmount,
	ErrRateLimited,
	ErrAlreadyHighestBidder,
	ErrBelowStartingPrice,
	ErrBelowCurrentBid,
}

// IsRejection reports whether err is one of the expected bid rejection reasons.
func IsRejection(err error) bool {
	for _, r := range rejections {
		if errors.Is(err, r) {
			return true
		}
	}
	return false
}

var userMessages = map[error]string{
	ErrAuctionClosed:        "This auction is closed.",
	ErrSelfListingBid:       "You cannot bid on your own listing.",
	ErrInvalidAmount:        "Bid amount must be a positive number with at most two decimal places.",
	ErrRateLimited:          "Too many bid attempts. Please wait a minute.",
	ErrAlreadyHighestBidder: "You already have the highest bid on this item.",
	ErrBelowStartingPrice:   "Bid must be higher than the starting price.",
	ErrBelowCurrentBid:      "Bid must be higher than the current highest bid.",
	ErrPersistence:          "Could not process bid. Please try again.",
	ErrListingNotFound:      "Listing not found.",
	ErrNotListingOwner:      "Only the listing owner can do that.",
	ErrUnauthenticated:      "Please log in first.",
	ErrInvalidListing:       "Listing details are invalid.",
	ErrInvalidComment:       "Comment must be between 1 and 500 characters.",
	ErrInvalidSchedule:      "Close time must be in the future.",
}

// UserMessage returns the message shown to the caller for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	// Rejections first so a rejection wrapped together with another
	// error still reports its own reason.
	for _, r := range rejections {
		if errors.Is(err, r) {
			return userMessages[r]
		}
	}
	for target, msg := range userMessages {
		if errors.Is(err, target) {
			return msg
		}
	}
	return "Something went wrong."
}
