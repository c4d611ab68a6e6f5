// Package worker keeps the SQLite snapshot in sync with Google Sheets. It
// refreshes on a fixed interval and on demand when a refresh message arrives
// over AMQP.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"cruscotto/internal/amqp"
	"cruscotto/internal/core"
	"cruscotto/internal/observability"
)

// DatasetLoader is the upstream the worker pulls from; in production it is
// the loader wrapping the Google Sheets client.
type DatasetLoader interface {
	Load(ctx context.Context) (core.Dataset, error)
	Invalidate()
}

// SnapshotWriter persists a dataset; in production the SQLite repository.
type SnapshotWriter interface {
	SaveDataset(ctx context.Context, ds core.Dataset) error
}

// RefreshConsumer delivers refresh requests; in production the AMQP client.
type RefreshConsumer interface {
	ConsumeRefresh(ctx context.Context, handler func(*amqp.RefreshMessage) error) error
}

type SnapshotWorker struct {
	loader   DatasetLoader
	writer   SnapshotWriter
	consumer RefreshConsumer
	interval time.Duration
	now      func() time.Time
}

// NewSnapshotWorker builds a worker. consumer may be nil when AMQP is not
// configured; the worker then refreshes on the interval only.
func NewSnapshotWorker(loader DatasetLoader, writer SnapshotWriter, consumer RefreshConsumer, interval time.Duration) *SnapshotWorker {
	return &SnapshotWorker{
		loader:   loader,
		writer:   writer,
		consumer: consumer,
		interval: interval,
		now:      time.Now,
	}
}

// Run refreshes once at startup, then loops until the context is cancelled.
func (w *SnapshotWorker) Run(ctx context.Context) error {
	if err := w.RefreshOnce(ctx, amqp.ReasonScheduled); err != nil {
		slog.ErrorContext(ctx, "Startup snapshot refresh failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := w.RefreshOnce(gctx, amqp.ReasonScheduled); err != nil {
					slog.ErrorContext(gctx, "Scheduled snapshot refresh failed", "error", err)
				}
			}
		}
	})

	if w.consumer != nil {
		g.Go(func() error {
			return w.consumer.ConsumeRefresh(gctx, func(msg *amqp.RefreshMessage) error {
				return w.RefreshOnce(gctx, msg.Reason)
			})
		})
	}

	return g.Wait()
}

// RefreshOnce pulls a fresh dataset and persists it. The loader cache is
// invalidated first so a refresh never re-saves stale data.
func (w *SnapshotWorker) RefreshOnce(ctx context.Context, reason string) error {
	started := w.now()
	w.loader.Invalidate()

	ds, err := w.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load dataset for snapshot: %w", err)
	}
	if err := w.writer.SaveDataset(ctx, ds); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}

	observability.RecordSnapshotRefreshed(ds.LoadedAt)
	slog.InfoContext(ctx, "Snapshot refreshed",
		"reason", reason,
		"records", len(ds.Records),
		"took", w.now().Sub(started).Round(time.Millisecond))
	return nil
}
