// Command recurring-worker materializes due recurring transactions and
// publishes reminder-due events, each on its own interval.
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
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentRecurring)
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

	// Without AMQP materialized transactions still land; their created
	// events and the reminder notifications are skipped.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without events", "error", err)
		} else {
			defer client.Close()
			publisher = client
		}
	}

	budgets := services.NewBudgetService(repo, publisher, cfg.MinBudgetYear)
	transactions := services.NewTransactionService(repo, publisher, budgets)
	processor := services.NewRecurringProcessor(repo, transactions)
	reminders := services.NewReminderService(repo, publisher)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Process immediately on startup so a restart never delays a due date
	// by a full interval.
	if count, err := processor.ProcessDue(ctx, time.Now()); err != nil {
		logger.Error("Initial recurring processing failed", "error", err)
	} else {
		logger.Info("Initial recurring processing complete", "created", count)
	}
	if _, err := reminders.SweepDue(ctx, time.Now()); err != nil {
		logger.Error("Initial reminder sweep failed", "error", err)
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		ticker := time.NewTicker(cfg.RecurringInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case now := <-ticker.C:
				count, err := processor.ProcessDue(ctx, now)
				if err != nil {
					logger.Error("Recurring processing failed", "error", err)
					continue
				}
				logger.Info("Recurring processing complete", "created", count)
			}
		}
	})

	group.Go(func() error {
		ticker := time.NewTicker(cfg.ReminderInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case now := <-ticker.C:
				if _, err := reminders.SweepDue(ctx, now); err != nil {
					logger.Error("Reminder sweep failed", "error", err)
				}
			}
		}
	})

	logger.Info("Recurring worker started",
		"recurring_interval", cfg.RecurringInterval,
		"reminder_interval", cfg.ReminderInterval)
	if err := group.Wait(); err != nil && err != context.Canceled {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Recurring worker stopped gracefully")
}
