package handlers

import (
	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// JSONResponse sends a structured JSON response
func JSONResponse(c echo.Context, status int, data any, message string) error {
	return c.JSON(status, map[string]any{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

// JSONError sends a structured error response
func JSONError(c echo.Context, status int, err error, message string) error {
	return c.JSON(status, map[string]any{
		"status":  status,
		"message": message,
		"error":   err.Error(),
	})
}

// MapErrorToHTTP returns the status code and user-facing message for err.
func MapErrorToHTTP(err error) (int, string) {
	message := domain.UserMessage(err)
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, message
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, message
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidListing),
		errors.Is(err, domain.ErrInvalidComment),
		errors.Is(err, domain.ErrInvalidSchedule):
		return http.StatusBadRequest, message
	case errors.Is(err, domain.ErrSelfListingBid), errors.Is(err, domain.ErrNotListingOwner):
		return http.StatusForbidden, message
	case errors.Is(err, domain.ErrListingNotFound):
		return http.StatusNotFound, message
	case domain.IsRejection(err):
		return http.StatusConflict, message
	case errors.Is(err, domain.ErrPersistence):
		return http.StatusServiceUnavailable, message
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// writeError maps err to a response. Server-side failures are logged and
// their details stay out of the body.
func writeError(c echo.Context, log logger.Logger, handler string, err error) error {
	status, message := MapErrorToHTTP(err)
	if status >= http.StatusInternalServerError {
		log.Error(handler+": request failed", "path", c.Path(), "error", err)
		return JSONError(c, status, errors.New(message), message)
	}
	return JSONError(c, status, err, message)
}

func badRequest(c echo.Context, err error) error {
	return JSONError(c, http.StatusBadRequest, err, "invalid request body")
}
