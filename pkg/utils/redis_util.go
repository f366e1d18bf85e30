package utils

import (
	"context"
	"fmt"
	"time"

	"auction-marketplace/internal/config"
	"auction-marketplace/pkg/logger"

	"github.com/cenkalti/backoff/v4"
	redisClient "github.com/go-redis/redis/v8"
)

// InitializeRedis creates the client and retries the first ping the same
// way InitializeMysql does.
func InitializeRedis(ctx context.Context, cfg *config.Config, log logger.Logger) (*redisClient.Client, error) {
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	err := backoff.RetryNotify(
		func() error {
			return rdb.Ping(ctx).Err()
		},
		newBackOff(ctx, cfg.Startup.MaxElapsed),
		func(err error, next time.Duration) {
			log.Warn("Redis not ready, retrying", "error", err, "retry_in", next.String())
		},
	)
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info("Connected to Redis", "address", cfg.Redis.Address)
	return rdb, nil
}
