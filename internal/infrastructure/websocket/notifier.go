package websocket

import (
	"auction-marketplace/internal/domain"
	"context"
)

type WebSocketNotifier struct {
	connManager domain.ConnectionManager
}

func NewWebSocketNotifier(connManager domain.ConnectionManager) *WebSocketNotifier {
	return &WebSocketNotifier{connManager: connManager}
}

func (n *WebSocketNotifier) NotifyUser(ctx context.Context, userID string, message interface{}) error {
	return n.connManager.NotifyUser(userID, message)
}

func (n *WebSocketNotifier) BroadcastToListing(ctx context.Context, listingID string, message interface{}) error {
	return n.connManager.BroadcastToListing(listingID, message)
}
