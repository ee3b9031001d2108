package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ship-tracking-backend/config"
	"ship-tracking-backend/internal/ais"
	"ship-tracking-backend/internal/api"
	"ship-tracking-backend/internal/db"
	"ship-tracking-backend/internal/eta"
	"ship-tracking-backend/internal/notify"
	"ship-tracking-backend/internal/store"
	"ship-tracking-backend/internal/tracker"
)

func main() {
	logger := log.New(os.Stdout, "ship-tracking ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if cfg.Providers.Primary.Username == "" {
		logger.Fatalf("PRIMARY_AIS_USERNAME must be set")
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	// Position providers and the fallback chain between them.
	primary := ais.NewPrimaryClient(
		cfg.Providers.Primary.URL,
		cfg.Providers.Primary.Username,
		time.Duration(cfg.Providers.Primary.MinRequestGapSeconds)*time.Second,
	)
	secondary := ais.NewSecondaryClient(cfg.Providers.Secondary.URL, cfg.Providers.Secondary.Key)
	fetcher := ais.NewFetcher(primary, secondary, ais.FetcherConfig{
		MaxAttempts:             cfg.Providers.Primary.FetchAttempts,
		RetryCooldown:           cfg.Providers.Primary.RetryCooldown,
		FallbackCooldown:        cfg.Providers.Secondary.Cooldown,
		FallbackCooldownMatched: cfg.Providers.Secondary.CooldownMatched,
	})

	// Delivery pipeline: queue drained by the worker through the gateway.
	outbox := notify.NewQueue()
	transport := notify.NewGatewayTransport(cfg.Transport.GatewayURL, cfg.Transport.Token)
	worker := notify.NewWorker(outbox, transport, cfg.Delivery.Interval, cfg.Delivery.MaxAttempts)
	go worker.Run(ctx)

	// Tracking scheduler.
	processor := tracker.NewProcessor(
		eta.Default(),
		notify.Thresholds(),
		time.Duration(cfg.Tracker.RetentionHours)*time.Hour,
	)
	trackerSvc := tracker.NewService(appStore, fetcher, processor, outbox, cfg.Tracker.Interval, cfg.Tracker.BatchSize)
	if cfg.Tracker.Enabled {
		go trackerSvc.Run(ctx)
	} else {
		logger.Println("tracker is disabled, not starting")
	}

	router := api.NewRouter(appStore, &cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
