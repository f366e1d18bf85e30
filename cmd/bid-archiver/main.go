package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"auction-marketplace/internal/app"
	"auction-marketplace/internal/config"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	log = logger.NewWithLevel(cfg.Log.Level)
	defer log.Sync()

	if cfg.Storage.Driver != config.StorageMySQL {
		log.Error("bid-archiver needs the shared event stream, set storage.driver=mysql",
			"driver", cfg.Storage.Driver)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := app.NewBackend(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer backend.Close(log)

	archiver := services.NewBidArchiver(backend.BidEvents, log)
	if err := archiver.Start(ctx, backend.Subscriber); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Bid archiver stopped", "error", err)
		os.Exit(1)
	}
	log.Info("Bid archiver stopped")
}
