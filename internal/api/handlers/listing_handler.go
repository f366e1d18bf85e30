package handlers

import (
	"auction-marketplace/internal/api/middleware"
	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"
	"net/http"

	"github.com/labstack/echo/v4"
)

type ListingHandler struct {
	listings *services.ListingService
	log      logger.Logger
}

func NewListingHandler(listings *services.ListingService, log logger.Logger) *ListingHandler {
	return &ListingHandler{listings: listings, log: log}
}

// ListActive handles GET /listings?category=
func (h *ListingHandler) ListActive(c echo.Context) error {
	ctx := c.Request().Context()
	category := c.QueryParam("category")

	summaries, err := h.listings.ActiveListings(ctx, category)
	if err != nil {
		return writeError(c, h.log, "ListActive", err)
	}
	counts, total, err := h.listings.CategoryCounts(ctx)
	if err != nil {
		return writeError(c, h.log, "ListActive", err)
	}

	return JSONResponse(c, http.StatusOK, map[string]any{
		"listings":   toSummaryResponses(summaries),
		"categories": counts,
		"total":      total,
		"category":   category,
	}, "active listings")
}

// CreateListing handles POST /listings
func (h *ListingHandler) CreateListing(c echo.Context) error {
	var req CreateListingRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}

	listing, err := h.listings.CreateListing(c.Request().Context(), middleware.UserID(c), domain.NewListing{
		Title:         req.Title,
		Description:   req.Description,
		StartingPrice: string(req.StartingPrice),
		ImageURL:      req.ImageURL,
		Category:      req.Category,
		Active:        req.Active,
	})
	if err != nil {
		return writeError(c, h.log, "CreateListing", err)
	}
	return JSONResponse(c, http.StatusCreated, toListingResponse(listing, nil), "listing created")
}

// GetListing handles GET /listings/:id
func (h *ListingHandler) GetListing(c echo.Context) error {
	detail, err := h.listings.GetListing(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return writeError(c, h.log, "GetListing", err)
	}

	bids := make([]BidResponse, 0, len(detail.Bids))
	for _, b := range detail.Bids {
		bids = append(bids, toBidResponse(b))
	}
	return JSONResponse(c, http.StatusOK, ListingDetailResponse{
		ListingResponse: toListingResponse(detail.Listing, detail.HighestBid),
		Bids:            bids,
		Comments:        toCommentResponses(detail.Comments),
		Watching:        detail.Watching,
	}, "listing")
}

// MyListings handles GET /me/listings
func (h *ListingHandler) MyListings(c echo.Context) error {
	summaries, err := h.listings.ListingsByOwner(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return writeError(c, h.log, "MyListings", err)
	}
	return JSONResponse(c, http.StatusOK, toSummaryResponses(summaries), "your listings")
}
