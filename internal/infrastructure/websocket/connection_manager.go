package websocket

import (
	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
	"sync"
)

type ConnectionManager struct {
	connections map[string]map[string]domain.WebSocketConnection // listingID -> userID -> connection
	userConns   map[string][]domain.WebSocketConnection          // userID -> connections
	mutex       sync.RWMutex
	log         logger.Logger
}

func NewConnectionManager(log logger.Logger) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]map[string]domain.WebSocketConnection),
		userConns:   make(map[string][]domain.WebSocketConnection),
		log:         log,
	}
}

func (cm *ConnectionManager) RegisterConnection(userID, listingID string, conn domain.WebSocketConnection) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if cm.connections[listingID] == nil {
		cm.connections[listingID] = make(map[string]domain.WebSocketConnection)
	}
	// A user reconnecting to the same listing replaces the old connection.
	if old, exists := cm.connections[listingID][userID]; exists {
		cm.dropUserConn(userID, listingID)
		_ = old.Close()
	}
	cm.connections[listingID][userID] = conn
	cm.userConns[userID] = append(cm.userConns[userID], conn)

	cm.log.Info("Connection registered", "user_id", userID, "listing_id", listingID)
	return nil
}

func (cm *ConnectionManager) UnregisterConnection(userID, listingID string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if listingConns, exists := cm.connections[listingID]; exists {
		delete(listingConns, userID)
		if len(listingConns) == 0 {
			delete(cm.connections, listingID)
		}
	}
	cm.dropUserConn(userID, listingID)

	cm.log.Info("Connection unregistered", "user_id", userID, "listing_id", listingID)
	return nil
}

// RemoveConnection unregisters conn unless it has already been replaced by a
// newer connection of the same user to the same listing.
func (cm *ConnectionManager) RemoveConnection(conn domain.WebSocketConnection) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	userID, listingID := conn.UserID(), conn.ListingID()
	listingConns, exists := cm.connections[listingID]
	if !exists || listingConns[userID] != conn {
		return
	}
	delete(listingConns, userID)
	if len(listingConns) == 0 {
		delete(cm.connections, listingID)
	}
	cm.dropUserConn(userID, listingID)

	cm.log.Info("Connection unregistered", "user_id", userID, "listing_id", listingID)
}

// dropUserConn removes the user's connection to listingID from the user
// index. Caller holds the write lock.
func (cm *ConnectionManager) dropUserConn(userID, listingID string) {
	userConnections, exists := cm.userConns[userID]
	if !exists {
		return
	}
	var kept []domain.WebSocketConnection
	for _, c := range userConnections {
		if c.ListingID() != listingID {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		delete(cm.userConns, userID)
	} else {
		cm.userConns[userID] = kept
	}
}

func (cm *ConnectionManager) CloseAndUnregisterConnections(listingID string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	listingConns, exists := cm.connections[listingID]
	if !exists {
		return nil
	}
	for userID, conn := range listingConns {
		if err := conn.Close(); err != nil {
			cm.log.Error("Failed to close connection", "user_id", userID,
				"listing_id", listingID, "error", err)
		}
		cm.dropUserConn(userID, listingID)
	}
	delete(cm.connections, listingID)

	cm.log.Info("Connections closed for listing", "listing_id", listingID, "count", len(listingConns))
	return nil
}

func (cm *ConnectionManager) GetConnectionsForListing(listingID string) []domain.WebSocketConnection {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	var connections []domain.WebSocketConnection
	for _, conn := range cm.connections[listingID] {
		connections = append(connections, conn)
	}
	return connections
}

func (cm *ConnectionManager) GetConnectionsForUser(userID string) []domain.WebSocketConnection {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	return append([]domain.WebSocketConnection(nil), cm.userConns[userID]...)
}

func (cm *ConnectionManager) BroadcastToListing(listingID string, message interface{}) error {
	connections := cm.GetConnectionsForListing(listingID)
	cm.log.Debug("Broadcasting to listing", "listing_id", listingID, "connections", len(connections))

	for _, conn := range connections {
		if err := conn.Send(message); err != nil {
			// Continue to other connections
			cm.log.Error("Failed to send message", "user_id", conn.UserID(),
				"listing_id", listingID, "error", err)
		}
	}
	return nil
}

func (cm *ConnectionManager) NotifyUser(userID string, message interface{}) error {
	for _, conn := range cm.GetConnectionsForUser(userID) {
		if err := conn.Send(message); err != nil {
			cm.log.Error("Failed to send message", "user_id", userID, "error", err)
		}
	}
	return nil
}
