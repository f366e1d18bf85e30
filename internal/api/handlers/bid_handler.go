package handlers

import (
	"auction-marketplace/internal/api/middleware"
	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"
	"net/http"

	"github.com/labstack/echo/v4"
)

type BidHandler struct {
	bids    *services.BidService
	history *services.HistoryService
	log     logger.Logger
}

func NewBidHandler(bids *services.BidService, history *services.HistoryService, log logger.Logger) *BidHandler {
	return &BidHandler{bids: bids, history: history, log: log}
}

// PlaceBid handles POST /listings/:id/bids
func (h *BidHandler) PlaceBid(c echo.Context) error {
	listingID := c.Param("id")
	userID := middleware.UserID(c)

	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}

	bid, err := h.bids.SubmitBid(c.Request().Context(), userID, listingID, string(req.Amount))
	if err != nil {
		return writeError(c, h.log, "PlaceBid", err)
	}
	return JSONResponse(c, http.StatusCreated, toBidResponse(bid), "bid placed")
}

// BidHistory handles GET /listings/:id/history
func (h *BidHandler) BidHistory(c echo.Context) error {
	events, err := h.history.BidHistory(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, h.log, "BidHistory", err)
	}

	out := make([]BidEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, BidEventResponse{
			Type:      string(e.Type),
			UserID:    e.UserID,
			Amount:    domain.FormatAmount(e.Amount),
			Timestamp: formatTime(e.Timestamp),
		})
	}
	return JSONResponse(c, http.StatusOK, out, "bid history")
}
