package handlers

import (
	"auction-marketplace/internal/domain"
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// AmountInput accepts an amount sent either as a JSON string or a JSON
// number and keeps its exact text for domain.ParseAmount.
type AmountInput string

func (a *AmountInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AmountInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a string or a number")
	}
	*a = AmountInput(n.String())
	return nil
}

type PlaceBidRequest struct {
	Amount AmountInput `json:"amount"`
}

type CreateListingRequest struct {
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	StartingPrice AmountInput `json:"starting_price"`
	ImageURL      string      `json:"image_url"`
	Category      string      `json:"category"`
	Active        *bool       `json:"active"`
}

type ScheduleCloseRequest struct {
	RunAt time.Time `json:"run_at"`
}

type CommentRequest struct {
	Body string `json:"body"`
}

type BidResponse struct {
	BidID     string `json:"bid_id"`
	ListingID string `json:"listing_id"`
	BidderID  string `json:"bidder_id"`
	Amount    string `json:"amount"`
	CreatedAt string `json:"created_at"`
}

type ListingResponse struct {
	ID            string       `json:"id"`
	OwnerID       string       `json:"owner_id"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	StartingPrice string       `json:"starting_price"`
	ImageURL      string       `json:"image_url,omitempty"`
	Status        string       `json:"status"`
	CategoryID    string       `json:"category_id"`
	HighestBid    *BidResponse `json:"highest_bid,omitempty"`
	CreatedAt     string       `json:"created_at"`
	UpdatedAt     string       `json:"updated_at"`
}

type ListingDetailResponse struct {
	ListingResponse
	Bids     []BidResponse     `json:"bids"`
	Comments []CommentResponse `json:"comments"`
	Watching bool              `json:"watching"`
}

type CloseResponse struct {
	ListingID  string `json:"listing_id"`
	WinnerID   string `json:"winner_id,omitempty"`
	Price      string `json:"price"`
	PurgedBids int64  `json:"purged_bids"`
	Result     string `json:"result"`
}

type JobResponse struct {
	JobID     string `json:"job_id"`
	ListingID string `json:"listing_id"`
	RunAt     string `json:"run_at"`
	Status    string `json:"status"`
}

type CommentResponse struct {
	ID        string `json:"id"`
	AuthorID  string `json:"author_id"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

type NotificationResponse struct {
	ID        string `json:"id"`
	ListingID string `json:"listing_id"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

type BidEventResponse struct {
	Type      string `json:"type"`
	UserID    string `json:"user_id"`
	Amount    string `json:"amount"`
	Timestamp string `json:"timestamp"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func toBidResponse(b *domain.Bid) BidResponse {
	return BidResponse{
		BidID:     b.ID,
		ListingID: b.ListingID,
		BidderID:  b.BidderID,
		Amount:    domain.FormatAmount(b.Amount),
		CreatedAt: formatTime(b.CreatedAt),
	}
}

func toListingResponse(l *domain.Listing, highest *domain.Bid) ListingResponse {
	resp := ListingResponse{
		ID:            l.ID,
		OwnerID:       l.OwnerID,
		Title:         l.Title,
		Description:   l.Description,
		StartingPrice: domain.FormatAmount(l.StartingPrice),
		ImageURL:      l.ImageURL,
		Status:        l.Status().String(),
		CategoryID:    l.CategoryID,
		CreatedAt:     formatTime(l.CreatedAt),
		UpdatedAt:     formatTime(l.UpdatedAt),
	}
	if highest != nil {
		b := toBidResponse(highest)
		resp.HighestBid = &b
	}
	return resp
}

func toSummaryResponses(summaries []domain.ListingSummary) []ListingResponse {
	out := make([]ListingResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, toListingResponse(s.Listing, s.HighestBid))
	}
	return out
}

func toCommentResponses(comments []*domain.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, CommentResponse{
			ID:        c.ID,
			AuthorID:  c.AuthorID,
			Body:      c.Body,
			CreatedAt: formatTime(c.CreatedAt),
		})
	}
	return out
}

func toCloseResponse(o *domain.CloseOutcome) CloseResponse {
	return CloseResponse{
		ListingID:  o.ListingID,
		WinnerID:   o.WinnerID,
		Price:      domain.FormatAmount(o.Price),
		PurgedBids: o.PurgedBids,
		Result:     o.Message(),
	}
}
