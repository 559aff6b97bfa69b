package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"backoffice/internal/amqp"
	"backoffice/internal/backend"
	"backoffice/internal/cache"
	"backoffice/internal/config"
	apphttp "backoffice/internal/http"
	"backoffice/internal/log"
	"backoffice/internal/metrics"
	"backoffice/internal/middleware/ratelimit"
	"backoffice/internal/reports"
	"backoffice/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	level, _ := log.ParseLevel(cfg.LogLevel)
	logger := log.New(log.Config{Level: level, Format: cfg.LogFormat, Output: os.Stdout})
	log.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	store, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Cleanup(); err != nil {
			logger.Warn("Failed to close store", "error", err)
		}
	}()

	// Events are optional; the API keeps working without a broker.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	accountsCache := cache.NewLRUCache[reports.AccountsSummary](cfg.CacheSize, cfg.CacheTTL)
	cacheManager := cache.NewManager(logger)
	cacheManager.Register(accountsCache)
	cacheManager.StartCleanup(cfg.CacheTTL)
	defer cacheManager.Stop()

	loc := cfg.Location()
	reporting := services.NewReportingService(store.Store, services.ReportingOptions{
		Location:   loc,
		HouseLabel: cfg.HouseLabel,
		Cache:      accountsCache,
		Logger:     logger,
	})
	docs := services.NewDocumentService(store.Store, store.Store, nil, services.DocumentOptions{
		Location:  loc,
		Publisher: publisher,
		Logger:    logger,
	})
	ledger := services.NewLedgerService(store.Store, services.LedgerOptions{
		Publisher:   publisher,
		Invalidator: reporting,
		Logger:      logger,
	})

	srv, err := apphttp.NewServer(":"+strconv.Itoa(cfg.Port),
		apphttp.Deps{Reports: reporting, Documents: docs, Ledger: ledger, Store: store.Store},
		apphttp.Options{
			RateLimit: ratelimit.Config{RequestsPerSecond: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst},
			Logger:    logger,
		})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting backoffice server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"time_zone", loc.String(),
			"events_enabled", publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("Server stopped gracefully")
	return nil
}
