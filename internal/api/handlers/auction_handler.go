package handlers

import (
	"auction-marketplace/internal/api/middleware"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// AuctionHandler exposes the owner controls of a listing: close, reactivate,
// toggle and scheduled close.
type AuctionHandler struct {
	auctionManager *services.AuctionManager
	log            logger.Logger
}

func NewAuctionHandler(auctionManager *services.AuctionManager, log logger.Logger) *AuctionHandler {
	return &AuctionHandler{
		auctionManager: auctionManager,
		log:            log,
	}
}

// CloseAuction handles POST /listings/:id/close
func (h *AuctionHandler) CloseAuction(c echo.Context) error {
	listingID := c.Param("id")
	userID := middleware.UserID(c)

	outcome, err := h.auctionManager.CloseAuction(c.Request().Context(), userID, listingID)
	if err != nil {
		return writeError(c, h.log, "CloseAuction", err)
	}
	return JSONResponse(c, http.StatusOK, toCloseResponse(outcome), "auction closed")
}

// ReactivateAuction handles POST /listings/:id/reactivate
func (h *AuctionHandler) ReactivateAuction(c echo.Context) error {
	listingID := c.Param("id")
	userID := middleware.UserID(c)

	listing, err := h.auctionManager.ReactivateAuction(c.Request().Context(), userID, listingID)
	if err != nil {
		return writeError(c, h.log, "ReactivateAuction", err)
	}
	return JSONResponse(c, http.StatusOK, toListingResponse(listing, nil), "auction reopened")
}

// ToggleAuction handles POST /listings/:id/toggle
func (h *AuctionHandler) ToggleAuction(c echo.Context) error {
	listingID := c.Param("id")
	userID := middleware.UserID(c)

	outcome, listing, err := h.auctionManager.ToggleAuction(c.Request().Context(), userID, listingID)
	if err != nil {
		return writeError(c, h.log, "ToggleAuction", err)
	}
	if outcome != nil {
		return JSONResponse(c, http.StatusOK, toCloseResponse(outcome), "auction closed")
	}
	return JSONResponse(c, http.StatusOK, toListingResponse(listing, nil), "auction reopened")
}

// ScheduleClose handles POST /listings/:id/schedule-close
func (h *AuctionHandler) ScheduleClose(c echo.Context) error {
	listingID := c.Param("id")
	userID := middleware.UserID(c)

	var req ScheduleCloseRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}
	if req.RunAt.IsZero() {
		return badRequest(c, errors.New("run_at is required"))
	}

	job, err := h.auctionManager.ScheduleClose(c.Request().Context(), userID, listingID, req.RunAt)
	if err != nil {
		return writeError(c, h.log, "ScheduleClose", err)
	}

	return JSONResponse(c, http.StatusCreated, JobResponse{
		JobID:     job.ID,
		ListingID: job.ListingID,
		RunAt:     formatTime(job.RunAt),
		Status:    string(job.Status),
	}, "close scheduled")
}
