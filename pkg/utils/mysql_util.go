package utils

import (
	"context"
	"fmt"
	"time"

	"auction-marketplace/internal/config"
	"auction-marketplace/pkg/logger"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

func newBackOff(ctx context.Context, maxElapsed time.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxElapsed
	return backoff.WithContext(b, ctx)
}

// InitializeMysql opens the pool and retries the first ping until
// cfg.Startup.MaxElapsed has passed.
func InitializeMysql(ctx context.Context, cfg *config.Config, log logger.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	err = backoff.RetryNotify(
		func() error {
			return db.PingContext(ctx)
		},
		newBackOff(ctx, cfg.Startup.MaxElapsed),
		func(err error, next time.Duration) {
			log.Warn("MySQL not ready, retrying", "error", err, "retry_in", next.String())
		},
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	log.Info("Connected to MySQL")
	return db, nil
}
