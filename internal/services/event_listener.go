package services

import (
	"context"
	"fmt"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
)

// EventListener fans bid events out to live WebSocket clients.
type EventListener struct {
	broadcaster       domain.ListingBroadcaster
	notifier          domain.UserNotifier
	connectionManager domain.ConnectionManager
	log               logger.Logger
}

func NewEventListener(connectionManager domain.ConnectionManager, broadcaster domain.ListingBroadcaster,
	notifier domain.UserNotifier, log logger.Logger) *EventListener {
	return &EventListener{
		broadcaster:       broadcaster,
		notifier:          notifier,
		connectionManager: connectionManager,
		log:               log,
	}
}

func (el *EventListener) Start(ctx context.Context, subscriber domain.EventSubscriber) error {
	el.log.Info("Starting event listener")
	return subscriber.SubscribeToBidEvents(ctx, el.HandleBidEvent)
}

func (el *EventListener) HandleBidEvent(event *domain.BidEvent) error {
	el.log.Debug("Handling bid event", "type", event.Type, "listing_id", event.ListingID)

	switch event.Type {
	case domain.BidAccepted:
		return el.handleBidAccepted(event)
	case domain.AuctionClosed:
		return el.handleAuctionClosed(event)
	case domain.AuctionReopened:
		return el.handleAuctionReopened(event)
	}

	return fmt.Errorf("unknown event type %q", event.Type)
}

func (el *EventListener) handleBidAccepted(event *domain.BidEvent) error {
	return el.broadcaster.BroadcastToListing(context.Background(), event.ListingID, map[string]interface{}{
		"type":           "bid_update",
		"current_bid":    domain.FormatAmount(event.Amount),
		"current_winner": event.UserID,
		"timestamp":      event.Timestamp,
	})
}

func (el *EventListener) handleAuctionClosed(event *domain.BidEvent) error {
	ctx := context.Background()

	if event.UserID != "" {
		if err := el.notifier.NotifyUser(ctx, event.UserID, map[string]interface{}{
			"type":       "auction_won",
			"listing_id": event.ListingID,
			"price":      domain.FormatAmount(event.Amount),
			"timestamp":  event.Timestamp,
		}); err != nil {
			el.log.Error("Failed to notify winner", "user_id", event.UserID, "error", err)
		}
	}

	// Final broadcast
	if err := el.broadcaster.BroadcastToListing(ctx, event.ListingID, map[string]interface{}{
		"type":      "auction_closed",
		"winner":    event.UserID,
		"price":     domain.FormatAmount(event.Amount),
		"timestamp": event.Timestamp,
	}); err != nil {
		el.log.Error("Failed to broadcast auction closed event", "error", err)
		return err
	}

	if err := el.connectionManager.CloseAndUnregisterConnections(event.ListingID); err != nil {
		el.log.Error("Failed to finalize connections for listing", "listing_id",
			event.ListingID, "error", err)
		return err
	}
	return nil
}

func (el *EventListener) handleAuctionReopened(event *domain.BidEvent) error {
	return el.broadcaster.BroadcastToListing(context.Background(), event.ListingID, map[string]interface{}{
		"type":           "auction_reopened",
		"starting_price": domain.FormatAmount(event.Amount),
		"timestamp":      event.Timestamp,
	})
}
