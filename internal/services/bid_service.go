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

	"github.com/shopspring/decimal"
)

// RateLimitPolicy bounds the bids a single user may have accepted per window.
type RateLimitPolicy struct {
	MaxBids int
	Window  time.Duration
}

func DefaultRateLimitPolicy() RateLimitPolicy {
	return RateLimitPolicy{MaxBids: 10, Window: time.Minute}
}

type BidService struct {
	store     repositories.TxStore
	limiter   domain.RateLimiter
	validator domain.BidValidator
	eventPub  domain.EventPublisher
	policy    RateLimitPolicy
	now       func() time.Time
	log       logger.Logger
}

func NewBidService(
	store repositories.TxStore,
	limiter domain.RateLimiter,
	validator domain.BidValidator,
	eventPub domain.EventPublisher,
	policy RateLimitPolicy,
	log logger.Logger,
) *BidService {
	return &BidService{
		store:     store,
		limiter:   limiter,
		validator: validator,
		eventPub:  eventPub,
		policy:    policy,
		now:       time.Now,
		log:       log,
	}
}

// SubmitBid validates and stores a bid. A nil error means the bid was
// accepted. Rejections match one of the domain rejection errors; storage
// failures match domain.ErrPersistence and leave nothing applied.
func (s *BidService) SubmitBid(ctx context.Context, userID, listingID, rawAmount string) (*domain.Bid, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}

	var (
		bid      *domain.Bid
		acquired bool
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		listing, err := tx.Listings().GetListingForUpdate(ctx, listingID)
		if err != nil {
			return err
		}

		if err := s.validator.ValidateListing(listing, userID); err != nil {
			return err
		}
		amount, err := s.validator.ParseAmount(rawAmount)
		if err != nil {
			return err
		}

		count, err := s.limiter.Count(ctx, userID)
		if err != nil {
			return err
		}
		if count >= s.policy.MaxBids {
			return domain.ErrRateLimited
		}

		highest, err := tx.Bids().GetHighestBid(ctx, listingID)
		if err != nil && !errors.Is(err, domain.ErrNoBids) {
			return err
		}
		if err := s.validator.ValidateAmount(listing, highest, userID, amount); err != nil {
			return err
		}

		bid = s.newBid(listingID, userID, amount)
		if err := tx.Bids().SaveBid(ctx, bid); err != nil {
			return err
		}

		// Last step before commit so a concurrent bid from the same user
		// that won the counter race rolls this insert back.
		ok, err := s.limiter.Acquire(ctx, userID, s.policy.MaxBids, s.policy.Window)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrRateLimited
		}
		acquired = true
		return nil
	})
	if err != nil {
		if acquired {
			if relErr := s.limiter.Release(context.WithoutCancel(ctx), userID); relErr != nil {
				s.log.Error("Failed to release rate limit slot", "user_id", userID, "error", relErr)
			}
		}
		return nil, s.bidError(userID, listingID, err)
	}

	s.log.Info("Bid accepted", "listing_id", listingID, "user_id", userID, "bid_id", bid.ID,
		"amount", domain.FormatAmount(bid.Amount))
	s.publish(ctx, &domain.BidEvent{
		Type:      domain.BidAccepted,
		ListingID: listingID,
		UserID:    userID,
		Amount:    bid.Amount,
		Timestamp: bid.CreatedAt,
	})
	return bid, nil
}

func (s *BidService) newBid(listingID, userID string, amount decimal.Decimal) *domain.Bid {
	now := s.now().UTC()
	return &domain.Bid{
		ID:        utils.GenerateID("bid"),
		ListingID: listingID,
		BidderID:  userID,
		Amount:    amount,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// bidError logs the outcome and folds storage failures into ErrPersistence.
func (s *BidService) bidError(userID, listingID string, err error) error {
	switch {
	case domain.IsRejection(err):
		s.log.Info("Bid rejected", "listing_id", listingID, "user_id", userID, "reason", err.Error())
		return err
	case errors.Is(err, domain.ErrListingNotFound):
		return err
	default:
		s.log.Error("Failed to store bid", "listing_id", listingID, "user_id", userID, "error", err)
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
}

func (s *BidService) publish(ctx context.Context, event *domain.BidEvent) {
	if s.eventPub == nil {
		return
	}
	if err := s.eventPub.PublishBidEvent(ctx, event); err != nil {
		s.log.Warn("Failed to publish event", "type", event.Type, "listing_id", event.ListingID, "error", err)
	}
}

// HighestBid returns the listing's current highest bid, or nil without error
// when there are no bids.
func (s *BidService) HighestBid(ctx context.Context, listingID string) (*domain.Bid, error) {
	bid, err := s.store.Bids().GetHighestBid(ctx, listingID)
	if errors.Is(err, domain.ErrNoBids) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("service: highest bid for %s: %w", listingID, err)
	}
	return bid, nil
}
