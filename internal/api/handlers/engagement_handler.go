package handlers

import (
	"auction-marketplace/internal/api/middleware"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"
	"net/http"

	"github.com/labstack/echo/v4"
)

// EngagementHandler serves comments, the watchlist and notifications.
type EngagementHandler struct {
	watchlist     *services.WatchlistService
	comments      *services.CommentService
	notifications *services.NotificationService
	log           logger.Logger
}

func NewEngagementHandler(watchlist *services.WatchlistService, comments *services.CommentService,
	notifications *services.NotificationService, log logger.Logger) *EngagementHandler {
	return &EngagementHandler{
		watchlist:     watchlist,
		comments:      comments,
		notifications: notifications,
		log:           log,
	}
}

// ListComments handles GET /listings/:id/comments
func (h *EngagementHandler) ListComments(c echo.Context) error {
	comments, err := h.comments.ListComments(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, h.log, "ListComments", err)
	}
	return JSONResponse(c, http.StatusOK, toCommentResponses(comments), "comments")
}

// AddComment handles POST /listings/:id/comments
func (h *EngagementHandler) AddComment(c echo.Context) error {
	var req CommentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}

	comment, err := h.comments.AddComment(c.Request().Context(), middleware.UserID(c), c.Param("id"), req.Body)
	if err != nil {
		return writeError(c, h.log, "AddComment", err)
	}
	return JSONResponse(c, http.StatusCreated, CommentResponse{
		ID:        comment.ID,
		AuthorID:  comment.AuthorID,
		Body:      comment.Body,
		CreatedAt: formatTime(comment.CreatedAt),
	}, "comment added")
}

// Watch handles POST /listings/:id/watch
func (h *EngagementHandler) Watch(c echo.Context) error {
	if err := h.watchlist.Add(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return writeError(c, h.log, "Watch", err)
	}
	return JSONResponse(c, http.StatusOK, map[string]any{"listing_id": c.Param("id"), "watching": true}, "added to watchlist")
}

// Unwatch handles DELETE /listings/:id/watch
func (h *EngagementHandler) Unwatch(c echo.Context) error {
	if err := h.watchlist.Remove(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return writeError(c, h.log, "Unwatch", err)
	}
	return JSONResponse(c, http.StatusOK, map[string]any{"listing_id": c.Param("id"), "watching": false}, "removed from watchlist")
}

// Watchlist handles GET /me/watchlist
func (h *EngagementHandler) Watchlist(c echo.Context) error {
	listings, err := h.watchlist.List(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return writeError(c, h.log, "Watchlist", err)
	}
	out := make([]ListingResponse, 0, len(listings))
	for _, l := range listings {
		out = append(out, toListingResponse(l, nil))
	}
	return JSONResponse(c, http.StatusOK, out, "watchlist")
}

// Notifications handles GET /me/notifications. Listing them marks them read.
func (h *EngagementHandler) Notifications(c echo.Context) error {
	notifications, err := h.notifications.List(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return writeError(c, h.log, "Notifications", err)
	}
	out := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, NotificationResponse{
			ID:        n.ID,
			ListingID: n.ListingID,
			Read:      n.IsRead,
			CreatedAt: formatTime(n.CreatedAt),
		})
	}
	return JSONResponse(c, http.StatusOK, out, "notifications")
}

// UnreadNotifications handles GET /me/notifications/unread
func (h *EngagementHandler) UnreadNotifications(c echo.Context) error {
	n, err := h.notifications.UnreadCount(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return writeError(c, h.log, "UnreadNotifications", err)
	}
	return JSONResponse(c, http.StatusOK, map[string]int{"unread": n}, "unread notifications")
}
