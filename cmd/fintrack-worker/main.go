// Command fintrack-worker consumes the event queue: it mirrors transactions
// to the configured spreadsheet and records notification events. A periodic
// sweep catches transactions whose events were lost.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/mirror"
	"fintrack/internal/storage"
	"fintrack/internal/worker"
)

// sweepInterval paces the pending-mirror catchup between queue deliveries.
const sweepInterval = 5 * time.Minute

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.New(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The spreadsheet mirror is optional; without it the worker still
	// handles notification events.
	var writer mirror.RowWriter
	if cfg.MirrorEnabled() {
		sheets, err := mirror.NewGoogleSheets(ctx, mirror.GoogleConfig{
			SpreadsheetID:   cfg.SheetsSpreadsheetID,
			SheetName:       cfg.SheetsSheetName,
			CredentialsJSON: cfg.SheetsCredentialsJSON,
			CredentialsFile: cfg.SheetsCredentialsFile,
		})
		if err != nil {
			logger.Error("Failed to initialize sheets mirror", "error", err)
			os.Exit(1)
		}
		writer = sheets
		logger.Info("Sheets mirror initialized", "spreadsheet_id", cfg.SheetsSpreadsheetID)
	} else {
		logger.Info("Sheets mirror disabled")
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	w := worker.NewMirrorWorker(repo, writer, cfg.MirrorBatchSize)

	// Catch anything that happened while the worker was down.
	if err := w.SweepPending(ctx); err != nil {
		logger.Error("Startup sweep failed", "error", err)
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return client.Consume(ctx, func(event *amqp.Event) error {
			return w.HandleEvent(ctx, event)
		})
	})

	group.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := w.SweepPending(ctx); err != nil {
					logger.Error("Periodic sweep failed", "error", err)
				}
			}
		}
	})

	logger.Info("Worker started", "queue", cfg.AMQPQueue)
	if err := group.Wait(); err != nil && err != context.Canceled {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
