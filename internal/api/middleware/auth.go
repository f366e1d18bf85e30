package middleware

import (
	"auction-marketplace/internal/auth"
	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
	"net/http"

	"github.com/labstack/echo/v4"
)

const userIDKey = "user_id"

type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// token subject as the user id.
func RequireAuth(verifier TokenVerifier, log logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, err := authenticate(c, verifier)
			if err != nil {
				log.Debug("Rejected request", "path", c.Path(), "error", err)
				return unauthorized(c, err)
			}
			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

// OptionalAuth identifies the caller when a token is sent. A bad token is
// still rejected.
func OptionalAuth(verifier TokenVerifier, log logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return next(c)
			}
			userID, err := authenticate(c, verifier)
			if err != nil {
				log.Debug("Rejected request", "path", c.Path(), "error", err)
				return unauthorized(c, err)
			}
			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}

func authenticate(c echo.Context, verifier TokenVerifier) (string, error) {
	token, err := auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		return "", err
	}
	return verifier.VerifyToken(token)
}

func unauthorized(c echo.Context, err error) error {
	return c.JSON(http.StatusUnauthorized, map[string]interface{}{
		"status":  http.StatusUnauthorized,
		"message": domain.UserMessage(domain.ErrUnauthenticated),
		"error":   err.Error(),
	})
}
