package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Listing struct {
	ID            string          `db:"id" json:"id"`
	OwnerID       string          `db:"owner_id" json:"owner_id"`
	Title         string          `db:"title" json:"title"`
	Description   string          `db:"description" json:"description"`
	StartingPrice decimal.Decimal `db:"starting_price" json:"starting_price"`
	ImageURL      string          `db:"image_url" json:"image_url"`
	Active        bool            `db:"is_active" json:"active"`
	CategoryID    string          `db:"category_id" json:"category_id"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

func (l *Listing) Status() ListingStatus {
	if l.Active {
		return ListingOpen
	}
	return ListingClosed
}

type ListingStatus int

const (
	ListingOpen ListingStatus = iota
	ListingClosed
)

func (s ListingStatus) String() string {
	switch s {
	case ListingOpen:
		return "open"
	case ListingClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ListingSummary is a listing annotated with its current highest bid, if any.
type ListingSummary struct {
	Listing    *Listing
	HighestBid *Bid
}

type ListingDetail struct {
	ListingSummary
	Bids     []*Bid
	Comments []*Comment
	Watching bool
}

type Bid struct {
	ID        string          `db:"id" json:"id"`
	ListingID string          `db:"listing_id" json:"listing_id"`
	BidderID  string          `db:"bidder_id" json:"bidder_id"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

type Notification struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	ListingID string    `db:"listing_id" json:"listing_id"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Category struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type WatchlistEntry struct {
	UserID    string    `db:"user_id" json:"user_id"`
	ListingID string    `db:"listing_id" json:"listing_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Comment struct {
	ID        string    `db:"id" json:"id"`
	AuthorID  string    `db:"author_id" json:"author_id"`
	ListingID string    `db:"listing_id" json:"listing_id"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CloseOutcome summarizes a completed Open -> Closed transition.
type CloseOutcome struct {
	ListingID    string
	WinnerID     string
	Price        decimal.Decimal
	PurgedBids   int64
	Notification *Notification
}

func (o *CloseOutcome) HasWinner() bool {
	return o.WinnerID != ""
}

func (o *CloseOutcome) Message() string {
	if !o.HasWinner() {
		return "closed, no winner"
	}
	return fmt.Sprintf("closed, new owner = %s", o.WinnerID)
}

type BidEvent struct {
	Type      BidEventType    `json:"type"`
	ListingID string          `json:"listing_id"`
	UserID    string          `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}

type BidEventType string

const (
	BidAccepted     BidEventType = "bid_accepted"
	AuctionClosed   BidEventType = "auction_closed"
	AuctionReopened BidEventType = "auction_reopened"
)

type ScheduledJob struct {
	ID          string    `db:"id"`
	ListingID   string    `db:"listing_id"`
	JobType     JobType   `db:"job_type"`
	RequestedBy string    `db:"requested_by"`
	RunAt       time.Time `db:"run_at"`
	Status      JobStatus `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
}

type JobType string

const (
	JobCloseAuction JobType = "close_auction"
)

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobExecuted  JobStatus = "executed"
	JobCancelled JobStatus = "cancelled"
)
