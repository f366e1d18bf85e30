package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-marketplace/internal/api"
	"auction-marketplace/internal/app"
	"auction-marketplace/internal/config"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"
)

func main() {
	log := logger.New()
	log.Info("Starting marketplace API")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	log = logger.NewWithLevel(cfg.Log.Level)
	defer log.Sync()
	log.Info("Configuration loaded", "config", cfg.GetConfigString())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := app.NewBackend(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer backend.Close(log)

	svc := backend.Services(cfg, log)
	e := api.NewServer(svc, app.NewTokenVerifier(cfg), log)

	// Close scheduler
	var scheduler *services.CronAuctionScheduler
	if cfg.Scheduler.Enabled {
		scheduler = services.NewCronAuctionScheduler(backend.Store.Jobs(), svc.Auctions, backend.Leader,
			cfg.Instance.ID, cfg.Scheduler.PollSpec, log)
		if err := scheduler.Start(ctx); err != nil {
			log.Error("Failed to start scheduler", "error", err)
			os.Exit(1)
		}
		if backend.Leader != nil {
			go app.Campaign(ctx, backend.Leader, cfg.Instance.ID, cfg.Leader.TTL/3, log)
		}
	}

	// With the memory driver nothing outside this process sees the events,
	// so the archiver and the live feed run here.
	var liveServer *http.Server
	if backend.InProcess {
		archiver := services.NewBidArchiver(backend.BidEvents, log)
		go func() {
			if err := archiver.Start(ctx, backend.Subscriber); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Bid archiver stopped", "error", err)
			}
		}()

		live := backend.LiveFeed(cfg, svc.Bids, log)
		go func() {
			if err := live.Listener.Start(ctx, backend.Subscriber); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Event listener stopped", "error", err)
			}
		}()

		liveServer = &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Live.Port),
			Handler:           live.Handlers.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Info("Starting live feed", "address", liveServer.Addr)
			if err := liveServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Live feed failed", "error", err)
				stop()
			}
		}()
	}

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		log.Info("Starting marketplace API server", "address", serverAddr)
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down marketplace API...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if scheduler != nil {
		if err := scheduler.Stop(); err != nil {
			log.Error("Failed to stop scheduler", "error", err)
		}
	}
	if liveServer != nil {
		if err := liveServer.Shutdown(shutdownCtx); err != nil {
			log.Error("Live feed forced to shutdown", "error", err)
		}
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Marketplace API stopped")
}
