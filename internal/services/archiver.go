package services

import (
	"context"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/domain/repositories"
	"auction-marketplace/pkg/logger"
)

// BidArchiver copies every bid event into the history table.
type BidArchiver struct {
	repo repositories.BidEventRepository
	log  logger.Logger
}

func NewBidArchiver(repo repositories.BidEventRepository, log logger.Logger) *BidArchiver {
	return &BidArchiver{repo: repo, log: log}
}

func (a *BidArchiver) Start(ctx context.Context, subscriber domain.EventSubscriber) error {
	a.log.Info("Starting bid archiver")

	return subscriber.SubscribeToBidEvents(ctx, func(event *domain.BidEvent) error {
		a.log.Debug("Storing bid event", "type", event.Type, "listing_id", event.ListingID, "user_id", event.UserID)
		return a.repo.SaveBidEvent(context.WithoutCancel(ctx), event)
	})
}
