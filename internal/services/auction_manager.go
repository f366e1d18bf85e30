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

// AuctionManager performs the Open <-> Closed transitions of a listing.
type AuctionManager struct {
	store    repositories.TxStore
	eventPub domain.EventPublisher
	now      func() time.Time
	log      logger.Logger
}

func NewAuctionManager(store repositories.TxStore, eventPub domain.EventPublisher, log logger.Logger) *AuctionManager {
	return &AuctionManager{
		store:    store,
		eventPub: eventPub,
		now:      time.Now,
		log:      log,
	}
}

// CloseAuction closes the listing on behalf of its owner. With a highest
// bid the bidder becomes the owner, all bids are deleted and the winner gets
// one notification, all in one transaction.
func (am *AuctionManager) CloseAuction(ctx context.Context, actorID, listingID string) (*domain.CloseOutcome, error) {
	if actorID == "" {
		return nil, domain.ErrUnauthenticated
	}

	var outcome *domain.CloseOutcome
	err := am.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		listing, err := tx.Listings().GetListingForUpdate(ctx, listingID)
		if err != nil {
			return err
		}
		if listing.OwnerID != actorID {
			return domain.ErrNotListingOwner
		}
		if !listing.Active {
			return domain.ErrAuctionClosed
		}

		outcome, err = am.close(ctx, tx, listing)
		return err
	})
	if err != nil {
		return nil, am.closeError(listingID, err)
	}

	am.afterClose(ctx, outcome)
	return outcome, nil
}

func (am *AuctionManager) close(ctx context.Context, tx repositories.Store, listing *domain.Listing) (*domain.CloseOutcome, error) {
	highest, err := tx.Bids().GetHighestBid(ctx, listing.ID)
	if err != nil && !errors.Is(err, domain.ErrNoBids) {
		return nil, err
	}

	now := am.now().UTC()
	outcome := domain.CloseListing(listing, highest, now)
	if err := tx.Listings().UpdateListing(ctx, listing); err != nil {
		return nil, err
	}

	if outcome.HasWinner() {
		purged, err := tx.Bids().DeleteBidsForListing(ctx, listing.ID)
		if err != nil {
			return nil, err
		}
		outcome.PurgedBids = purged

		notification := &domain.Notification{
			ID:        utils.GenerateID("ntf"),
			UserID:    outcome.WinnerID,
			ListingID: listing.ID,
			IsRead:    false,
			CreatedAt: now,
		}
		if err := tx.Notifications().CreateNotification(ctx, notification); err != nil {
			return nil, err
		}
		outcome.Notification = notification
	}

	if err := tx.Jobs().CancelJobsForListing(ctx, listing.ID); err != nil {
		return nil, err
	}
	return outcome, nil
}

func (am *AuctionManager) afterClose(ctx context.Context, outcome *domain.CloseOutcome) {
	am.log.Info("Auction closed", "listing_id", outcome.ListingID, "winner_id", outcome.WinnerID,
		"price", domain.FormatAmount(outcome.Price), "purged_bids", outcome.PurgedBids)
	am.publish(ctx, &domain.BidEvent{
		Type:      domain.AuctionClosed,
		ListingID: outcome.ListingID,
		UserID:    outcome.WinnerID,
		Amount:    outcome.Price,
		Timestamp: am.now().UTC(),
	})
}

// ReactivateAuction reopens a closed listing. Reactivating an open listing
// returns it unchanged.
func (am *AuctionManager) ReactivateAuction(ctx context.Context, actorID, listingID string) (*domain.Listing, error) {
	if actorID == "" {
		return nil, domain.ErrUnauthenticated
	}

	var (
		listing *domain.Listing
		changed bool
	)
	err := am.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		var err error
		listing, err = tx.Listings().GetListingForUpdate(ctx, listingID)
		if err != nil {
			return err
		}
		if listing.OwnerID != actorID {
			return domain.ErrNotListingOwner
		}

		changed = listing.Reactivate(am.now().UTC())
		if !changed {
			return nil
		}
		if err := tx.Listings().UpdateListing(ctx, listing); err != nil {
			return err
		}
		return tx.Jobs().CancelJobsForListing(ctx, listingID)
	})
	if err != nil {
		return nil, am.closeError(listingID, err)
	}

	if changed {
		am.log.Info("Auction reopened", "listing_id", listingID)
		am.publish(ctx, &domain.BidEvent{
			Type:      domain.AuctionReopened,
			ListingID: listingID,
			UserID:    actorID,
			Amount:    listing.StartingPrice,
			Timestamp: listing.UpdatedAt,
		})
	}
	return listing, nil
}

// ToggleAuction closes an open listing and reopens a closed one. Exactly one
// of the results is non-nil on success.
func (am *AuctionManager) ToggleAuction(ctx context.Context, actorID, listingID string) (*domain.CloseOutcome, *domain.Listing, error) {
	listing, err := am.store.Listings().GetListing(ctx, listingID)
	if err != nil {
		return nil, nil, am.closeError(listingID, err)
	}
	if listing.Active {
		outcome, err := am.CloseAuction(ctx, actorID, listingID)
		return outcome, nil, err
	}
	reopened, err := am.ReactivateAuction(ctx, actorID, listingID)
	return nil, reopened, err
}

// ScheduleClose records a close_auction job that the scheduler runs at runAt
// on behalf of actorID.
func (am *AuctionManager) ScheduleClose(ctx context.Context, actorID, listingID string, runAt time.Time) (*domain.ScheduledJob, error) {
	if actorID == "" {
		return nil, domain.ErrUnauthenticated
	}
	now := am.now().UTC()
	if !runAt.After(now) {
		return nil, domain.ErrInvalidSchedule
	}

	job := &domain.ScheduledJob{
		ID:          utils.GenerateID("job"),
		ListingID:   listingID,
		JobType:     domain.JobCloseAuction,
		RequestedBy: actorID,
		RunAt:       runAt.UTC(),
		Status:      domain.JobPending,
		CreatedAt:   now,
	}
	err := am.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		listing, err := tx.Listings().GetListingForUpdate(ctx, listingID)
		if err != nil {
			return err
		}
		if listing.OwnerID != actorID {
			return domain.ErrNotListingOwner
		}
		if !listing.Active {
			return domain.ErrAuctionClosed
		}
		return tx.Jobs().CreateJob(ctx, job)
	})
	if err != nil {
		return nil, am.closeError(listingID, err)
	}

	am.log.Info("Auction close scheduled", "listing_id", listingID, "job_id", job.ID, "run_at", job.RunAt)
	return job, nil
}

// CloseScheduled runs a due close_auction job. The job's requester must
// still own the listing.
func (am *AuctionManager) CloseScheduled(ctx context.Context, job *domain.ScheduledJob) (*domain.CloseOutcome, error) {
	return am.CloseAuction(ctx, job.RequestedBy, job.ListingID)
}

func (am *AuctionManager) closeError(listingID string, err error) error {
	switch {
	case errors.Is(err, domain.ErrAuctionClosed),
		errors.Is(err, domain.ErrNotListingOwner),
		errors.Is(err, domain.ErrListingNotFound):
		return err
	default:
		am.log.Error("Failed to update auction", "listing_id", listingID, "error", err)
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
}

func (am *AuctionManager) publish(ctx context.Context, event *domain.BidEvent) {
	if am.eventPub == nil {
		return
	}
	if err := am.eventPub.PublishBidEvent(ctx, event); err != nil {
		am.log.Warn("Failed to publish event", "type", event.Type, "listing_id", event.ListingID, "error", err)
	}
}
