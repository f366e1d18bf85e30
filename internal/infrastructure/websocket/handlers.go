package websocket

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxMessage = 4096
)

// BidSubmitter is the part of the bid service the live feed needs.
type BidSubmitter interface {
	SubmitBid(ctx context.Context, userID, listingID, rawAmount string) (*domain.Bid, error)
}

type ListingReader interface {
	GetListing(ctx context.Context, listingID string) (*domain.Listing, error)
}

type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

type WebSocketHandler struct {
	bids        BidSubmitter
	listings    ListingReader
	verifier    TokenVerifier
	connManager *ConnectionManager
	upgrader    websocket.Upgrader
	log         logger.Logger
}

func NewWebSocketHandler(bids BidSubmitter, listings ListingReader, verifier TokenVerifier,
	connManager *ConnectionManager, allowedOrigin string, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		bids:        bids,
		listings:    listings,
		verifier:    verifier,
		connManager: connManager,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" || allowedOrigin == "*" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		},
		log: log,
	}
}

type clientMessage struct {
	Type   string `json:"type"`
	Amount string `json:"amount"`
}

// HandleConnection upgrades GET /ws/listings/{listingID}?token=... once the
// token is valid and the listing is open.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	listingID := mux.Vars(r)["listingID"]

	userID, err := h.verifier.VerifyToken(r.URL.Query().Get("token"))
	if err != nil {
		h.log.Info("Rejected connection - invalid token", "listing_id", listingID, "error", err)
		http.Error(w, domain.UserMessage(err), http.StatusUnauthorized)
		return
	}

	listing, err := h.listings.GetListing(r.Context(), listingID)
	if err != nil {
		if errors.Is(err, domain.ErrListingNotFound) {
			http.Error(w, domain.UserMessage(err), http.StatusNotFound)
			return
		}
		h.log.Error("Failed to load listing", "listing_id", listingID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !listing.Active {
		h.log.Info("Rejected connection - listing is closed", "listing_id", listingID)
		http.Error(w, domain.UserMessage(domain.ErrAuctionClosed), http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}

	wsConn := NewWebSocketConnection(conn, userID, listingID)
	if err := h.connManager.RegisterConnection(userID, listingID, wsConn); err != nil {
		h.log.Error("Failed to register connection", "error", err)
		_ = wsConn.Close()
		return
	}

	go h.keepAlive(wsConn)
	go h.handleMessages(wsConn)
}

func (h *WebSocketHandler) handleMessages(conn *WebSocketConnection) {
	defer func() {
		h.connManager.RemoveConnection(conn)
		_ = conn.Close()
	}()

	conn.conn.SetReadLimit(maxMessage)
	_ = conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg clientMessage
		if err := conn.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Error("Failed to read message", "user_id", conn.UserID(), "error", err)
			}
			return
		}

		switch msg.Type {
		case "place_bid":
			h.handleBidMessage(conn, msg)
		case "ping":
			_ = conn.Send(map[string]string{"type": "pong"})
		default:
			_ = conn.Send(map[string]string{"type": "error", "message": "unknown message type"})
		}
	}
}

func (h *WebSocketHandler) handleBidMessage(conn *WebSocketConnection, msg clientMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()

	bid, err := h.bids.SubmitBid(ctx, conn.UserID(), conn.ListingID(), msg.Amount)
	if err != nil {
		_ = conn.Send(map[string]string{"type": "bid_rejected", "message": domain.UserMessage(err)})
		return
	}
	_ = conn.Send(map[string]interface{}{
		"type":   "bid_accepted",
		"bid_id": bid.ID,
		"amount": domain.FormatAmount(bid.Amount),
	})
}

func (h *WebSocketHandler) keepAlive(conn *WebSocketConnection) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-conn.done:
			return
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

// WebSocketConnection serializes writes: gorilla connections support one
// concurrent writer.
type WebSocketConnection struct {
	conn      *websocket.Conn
	userID    string
	listingID string

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

func NewWebSocketConnection(conn *websocket.Conn, userID, listingID string) *WebSocketConnection {
	return &WebSocketConnection{
		conn:      conn,
		userID:    userID,
		listingID: listingID,
		done:      make(chan struct{}),
	}
}

func (wsc *WebSocketConnection) Send(message interface{}) error {
	wsc.writeMu.Lock()
	defer wsc.writeMu.Unlock()

	_ = wsc.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return wsc.conn.WriteJSON(message)
}

func (wsc *WebSocketConnection) ping() error {
	wsc.writeMu.Lock()
	defer wsc.writeMu.Unlock()

	return wsc.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (wsc *WebSocketConnection) Close() error {
	var err error
	wsc.closeOnce.Do(func() {
		close(wsc.done)
		err = wsc.conn.Close()
	})
	return err
}

func (wsc *WebSocketConnection) UserID() string {
	return wsc.userID
}

func (wsc *WebSocketConnection) ListingID() string {
	return wsc.listingID
}
