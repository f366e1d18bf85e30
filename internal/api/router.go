package api

import (
	"net/http"
	"time"

	"auction-marketplace/internal/api/handlers"
	authmw "auction-marketplace/internal/api/middleware"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Services groups what the REST API serves.
type Services struct {
	Listings      *services.ListingService
	Auctions      *services.AuctionManager
	Bids          *services.BidService
	History       *services.HistoryService
	Watchlist     *services.WatchlistService
	Comments      *services.CommentService
	Notifications *services.NotificationService
}

// NewServer builds the echo instance with every /api/v1 route.
func NewServer(svc Services, verifier authmw.TokenVerifier, log logger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
		},
		MaxAge: 86400,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("Request handled",
				"id", v.RequestID,
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.String())
			return nil
		},
	}))

	listingHandler := handlers.NewListingHandler(svc.Listings, log)
	auctionHandler := handlers.NewAuctionHandler(svc.Auctions, log)
	bidHandler := handlers.NewBidHandler(svc.Bids, svc.History, log)
	engagementHandler := handlers.NewEngagementHandler(svc.Watchlist, svc.Comments, svc.Notifications, log)

	requireAuth := authmw.RequireAuth(verifier, log)
	optionalAuth := authmw.OptionalAuth(verifier, log)

	api := e.Group("/api/v1")

	// Public reads
	api.GET("/listings", listingHandler.ListActive)
	api.GET("/listings/:id", listingHandler.GetListing, optionalAuth)
	api.GET("/listings/:id/history", bidHandler.BidHistory)
	api.GET("/listings/:id/comments", engagementHandler.ListComments)

	// Authenticated actions
	api.POST("/listings", listingHandler.CreateListing, requireAuth)
	api.POST("/listings/:id/bids", bidHandler.PlaceBid, requireAuth)
	api.POST("/listings/:id/close", auctionHandler.CloseAuction, requireAuth)
	api.POST("/listings/:id/reactivate", auctionHandler.ReactivateAuction, requireAuth)
	api.POST("/listings/:id/toggle", auctionHandler.ToggleAuction, requireAuth)
	api.POST("/listings/:id/schedule-close", auctionHandler.ScheduleClose, requireAuth)
	api.POST("/listings/:id/comments", engagementHandler.AddComment, requireAuth)
	api.POST("/listings/:id/watch", engagementHandler.Watch, requireAuth)
	api.DELETE("/listings/:id/watch", engagementHandler.Unwatch, requireAuth)

	me := api.Group("/me", requireAuth)
	me.GET("/listings", listingHandler.MyListings)
	me.GET("/watchlist", engagementHandler.Watchlist)
	me.GET("/notifications", engagementHandler.Notifications)
	me.GET("/notifications/unread", engagementHandler.UnreadNotifications)

	health := func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "marketplace-api",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
	e.GET("/health", health)
	api.GET("/health", health)

	return e
}
