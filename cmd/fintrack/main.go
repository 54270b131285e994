// Command fintrack runs the JSON API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fintrack/internal/ai"
	"fintrack/internal/amqp"
	"fintrack/internal/config"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	// Local development reads .env; in containers the environment is real.
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
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

	// AMQP is optional: without it writes still land, events are skipped.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, events disabled", "error", err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
		}
	}

	budgets := services.NewBudgetService(repo, publisher, cfg.MinBudgetYear)
	transactions := services.NewTransactionService(repo, publisher, budgets)

	var completer services.Completer
	if cfg.AIEnabled() {
		completer = ai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		logger.Info("AI insights enabled", "model", cfg.OpenAIModel)
	}

	srv := apphttp.NewServer(cfg.Port, apphttp.Deps{
		Repo:         repo,
		Transactions: transactions,
		Budgets:      budgets,
		Goals:        services.NewGoalService(repo),
		Reminders:    services.NewReminderService(repo, publisher),
		Recommender:  services.NewRecommender(repo, cfg.MinBudgetYear),
		Importer:     services.NewImporter(repo, transactions),
		Backups:      services.NewBackupService(repo),
		Insights:     services.NewInsightsService(repo, budgets, completer),
		Dashboard:    services.NewDashboardService(repo, budgets),
	})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		if err := srv.Stop(context.Background()); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting fintrack API", "port", cfg.Port)
	if err := srv.Start(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
