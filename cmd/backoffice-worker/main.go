package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"backoffice/internal/amqp"
	"backoffice/internal/backend"
	"backoffice/internal/config"
	"backoffice/internal/log"
	"backoffice/internal/metrics"
	"backoffice/internal/scheduler"
	"backoffice/internal/services"
	"backoffice/internal/sheets"
	gsheet "backoffice/internal/sheets/google"
	"backoffice/internal/sheets/memory"
	"backoffice/internal/worker"
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
	logger := log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: log.ComponentWorker,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)

	if err := run(cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped")
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
	defer store.Cleanup()

	exporter, err := newExporter(ctx, cfg, logger)
	if err != nil {
		return err
	}

	loc := cfg.Location()
	// Exports always read fresh data, so the worker's reports skip the cache.
	reporting := services.NewReportingService(store.Store, services.ReportingOptions{
		Location:   loc,
		HouseLabel: cfg.HouseLabel,
		Logger:     logger,
	})
	docs := services.NewDocumentService(store.Store, store.Store, nil, services.DocumentOptions{
		Location: loc,
		Logger:   logger,
	})
	w := worker.NewExportWorker(reporting, docs, exporter, worker.Options{
		SummarySheet: cfg.SummarySheet,
		QueueSheet:   cfg.QueueSheet,
		Location:     loc,
		Logger:       logger,
	})

	sched, err := scheduler.New(w, scheduler.Schedules{
		Export:      cfg.ExportSchedule,
		ExpirySweep: cfg.ExpirySweepSchedule,
	}, loc, logger)
	if err != nil {
		return err
	}

	// Catch up on anything written while the worker was down.
	if err := w.ExportAll(ctx); err != nil {
		logger.Error("Startup export failed", "error", err)
	}

	sched.Start()
	defer sched.Stop()

	g, ctx := errgroup.WithContext(ctx)
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return fmt.Errorf("initialize AMQP client: %w", err)
		}
		defer client.Close()
		g.Go(func() error { return client.Consume(ctx, w.HandleEvent) })
	} else {
		logger.Info("AMQP disabled, relying on scheduled exports only")
	}
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
		return ctx.Err()
	})

	return g.Wait()
}

// newExporter returns the Google Sheets exporter when a spreadsheet is
// configured and an in-memory recorder otherwise.
func newExporter(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.Exporter, error) {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, exports are kept in memory")
		return memory.New(), nil
	}
	client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, gsheet.Credentials{
		JSON:            cfg.GoogleServiceAccountJSON,
		File:            cfg.GoogleServiceAccountFile,
		ApplicationPath: cfg.GoogleApplicationCredPath,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}
