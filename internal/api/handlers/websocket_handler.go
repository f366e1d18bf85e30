package handlers

import (
	"net/http"
	"time"

	"auction-marketplace/internal/api/middleware"
	"auction-marketplace/internal/infrastructure/websocket"
	"auction-marketplace/pkg/logger"

	"github.com/gorilla/mux"
)

// WebSocketHandlers mounts the live bid feed on a gorilla/mux router.
type WebSocketHandlers struct {
	wsHandler     *websocket.WebSocketHandler
	allowedOrigin string
	log           logger.Logger
}

func NewWebSocketHandlers(wsHandler *websocket.WebSocketHandler, allowedOrigin string, log logger.Logger) *WebSocketHandlers {
	return &WebSocketHandlers{
		wsHandler:     wsHandler,
		allowedOrigin: allowedOrigin,
		log:           log,
	}
}

// Router returns the live-service routes:
//
//	GET /ws/listings/{listingID}?token=...
//	GET /health
func (h *WebSocketHandlers) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.CORSWithLogging(h.allowedOrigin, h.log))

	r.HandleFunc("/ws/listings/{listingID}", h.HandleConnection).Methods(http.MethodGet)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	return r
}

func (h *WebSocketHandlers) HandleConnection(w http.ResponseWriter, r *http.Request) {
	h.wsHandler.HandleConnection(w, r)
}

func (h *WebSocketHandlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok","service":"live-service","timestamp":"` +
		time.Now().UTC().Format(time.RFC3339) + `"}`))
}
