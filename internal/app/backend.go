package app

import (
	"context"
	"fmt"

	"auction-marketplace/internal/api"
	"auction-marketplace/internal/api/handlers"
	"auction-marketplace/internal/auth"
	"auction-marketplace/internal/config"
	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/domain/repositories"
	"auction-marketplace/internal/infrastructure/leader"
	"auction-marketplace/internal/infrastructure/memory"
	"auction-marketplace/internal/infrastructure/mysql"
	"auction-marketplace/internal/infrastructure/redis"
	"auction-marketplace/internal/infrastructure/websocket"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"
	"auction-marketplace/pkg/utils"
)

// Backend holds the storage, counter and event stream implementations
// selected by storage.driver.
type Backend struct {
	Store      repositories.TxStore
	Limiter    domain.RateLimiter
	Publisher  domain.EventPublisher
	Subscriber domain.EventSubscriber
	BidEvents  repositories.BidEventRepository
	// Leader is nil when only one instance can exist.
	Leader domain.LeaderElection
	// InProcess is true for the memory driver: events never leave this
	// process, so consumers must run here too.
	InProcess bool

	closers []func() error
}

func NewBackend(ctx context.Context, cfg *config.Config, log logger.Logger) (*Backend, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		log.Warn("Using in-memory storage, data is lost on exit")
		bus := memory.NewEventBus(log)
		return &Backend{
			Store:      memory.NewStore(),
			Limiter:    memory.NewRateLimiter(),
			Publisher:  bus,
			Subscriber: bus,
			BidEvents:  memory.NewBidEventRepository(),
			InProcess:  true,
		}, nil

	case config.StorageMySQL:
		db, err := utils.InitializeMysql(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		rdb, err := utils.InitializeRedis(ctx, cfg, log)
		if err != nil {
			db.Close()
			return nil, err
		}
		return &Backend{
			Store:      mysql.NewStore(db),
			Limiter:    redis.NewRedisRateLimiter(rdb),
			Publisher:  redis.NewEventPublisher(rdb),
			Subscriber: redis.NewRedisEventSubscriber(rdb, log),
			BidEvents:  mysql.NewMySQLBidEventRepository(db),
			Leader:     leader.NewRedisLeaderElection(rdb, cfg.Leader.Key, cfg.Leader.TTL),
			closers:    []func() error{rdb.Close, db.Close},
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// Close releases the connections in reverse order of creation.
func (b *Backend) Close(log logger.Logger) {
	for _, closeFn := range b.closers {
		if err := closeFn(); err != nil {
			log.Error("Failed to close connection", "error", err)
		}
	}
}

func (b *Backend) BidService(cfg *config.Config, log logger.Logger) *services.BidService {
	policy := services.RateLimitPolicy{
		MaxBids: cfg.Bidding.RateLimit.MaxBids,
		Window:  cfg.Bidding.RateLimit.Window,
	}
	return services.NewBidService(b.Store, b.Limiter, services.NewRuleBidValidator(), b.Publisher, policy, log)
}

// Services builds everything the REST API serves.
func (b *Backend) Services(cfg *config.Config, log logger.Logger) api.Services {
	return api.Services{
		Listings:      services.NewListingService(b.Store, log),
		Auctions:      services.NewAuctionManager(b.Store, b.Publisher, log),
		Bids:          b.BidService(cfg, log),
		History:       services.NewHistoryService(b.Store, b.BidEvents),
		Watchlist:     services.NewWatchlistService(b.Store),
		Comments:      services.NewCommentService(b.Store, log),
		Notifications: services.NewNotificationService(b.Store, log),
	}
}

func NewTokenVerifier(cfg *config.Config) *auth.TokenVerifier {
	return auth.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTAlgorithms)
}

// LiveFeed is the WebSocket side: the routes plus the listener that pushes
// events to connected clients.
type LiveFeed struct {
	Handlers *handlers.WebSocketHandlers
	Listener *services.EventListener
}

func (b *Backend) LiveFeed(cfg *config.Config, bids *services.BidService, log logger.Logger) *LiveFeed {
	connManager := websocket.NewConnectionManager(log)
	notifier := websocket.NewWebSocketNotifier(connManager)

	wsHandler := websocket.NewWebSocketHandler(bids, b.Store.Listings(), NewTokenVerifier(cfg), connManager,
		cfg.Live.AllowedOrigin, log)

	return &LiveFeed{
		Handlers: handlers.NewWebSocketHandlers(wsHandler, cfg.Live.AllowedOrigin, log),
		Listener: services.NewEventListener(connManager, notifier, notifier, log),
	}
}
