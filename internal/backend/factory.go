// Package backend builds the dataset source selected by configuration:
// Google Sheets for live data, SQLite for the worker-maintained snapshot,
// or the in-memory store for local development.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cruscotto/internal/config"
	"cruscotto/internal/observability"
	gsheet "cruscotto/internal/sheets/google"
	"cruscotto/internal/sheets/memory"
	"cruscotto/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, cfg Config) (*Result, error) {
	if !cfg.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.Type)
	}

	switch cfg.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, cfg)
	case SheetsBackend:
		return f.createSheetsBackend(ctx)
	case MemoryBackend:
		return f.createMemoryBackend(cfg)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, cfg Config) (*Result, error) {
	repo, err := storage.NewSnapshotRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize snapshot repository: %w", err)
	}

	// Seed the snapshot watermark from the existing database so /metrics
	// reports freshness before the worker's next refresh.
	refreshedAt, err := repo.RefreshedAt(ctx)
	switch {
	case err != nil:
		f.logger.Warn("Could not read snapshot watermark", "error", err, "db_path", cfg.SQLiteDBPath)
	case refreshedAt.IsZero():
		f.logger.Warn("Snapshot database is empty, waiting for the worker", "db_path", cfg.SQLiteDBPath)
	default:
		observability.RecordSnapshotRefreshed(refreshedAt)
		f.logger.Info("Initialized SQLite backend",
			"db_path", cfg.SQLiteDBPath,
			"refreshed_at", refreshedAt.Format(time.RFC3339))
	}

	return &Result{
		Source:  repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context) (*Result, error) {
	cli, err := gsheet.NewFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend")

	return &Result{
		Source:  cli,
		Cleanup: nil,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(cfg Config) (*Result, error) {
	dataDir := cfg.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	store := memory.NewFromFiles(dataDir)

	f.logger.Info("Initialized memory backend", "data_directory", dataDir)

	return &Result{
		Source:  store,
		Cleanup: nil,
	}, nil
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := Type(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleLogbookSheetName:   appConfig.GoogleLogbookSheetName,
		GoogleClientMapSheetName: appConfig.GoogleClientMapSheetName,

		DataDirectory: "data",
	}, nil
}
