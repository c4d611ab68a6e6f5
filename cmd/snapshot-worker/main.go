package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"cruscotto/internal/amqp"
	"cruscotto/internal/config"
	"cruscotto/internal/loader"
	applog "cruscotto/internal/log"
	gsheet "cruscotto/internal/sheets/google"
	"cruscotto/internal/storage"
	"cruscotto/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logCfg := applog.DefaultConfig()
	logCfg.Component = applog.ComponentWorker
	logger := applog.New(logCfg)
	applog.SetDefault(logger)

	logger.Info("Starting snapshot-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the snapshot worker")
		os.Exit(1)
	}

	// Google Sheets is the worker's upstream
	sheetsClient, err := gsheet.NewFromEnv(context.Background())
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}

	// SQLite snapshot is the downstream
	repo, err := storage.NewSnapshotRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize snapshot repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// AMQP consumption is optional; without it the worker refreshes on the
	// interval only
	var consumer worker.RefreshConsumer
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		consumer = amqpClient
		logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - refreshing on interval only")
	}

	datasetLoader := loader.New(sheetsClient, cfg.CacheTTL, cfg.FetchTimeout, cfg.FetchRetries)
	snapshotWorker := worker.NewSnapshotWorker(datasetLoader, repo, consumer, cfg.SnapshotInterval)

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	logger.Info("Snapshot worker running",
		"interval", cfg.SnapshotInterval,
		"db_path", cfg.SQLiteDBPath)

	if err := snapshotWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Snapshot worker failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Snapshot worker stopped gracefully")
}
