// Package loader wraps a dataset source with freshness caching, bounded
// timeouts and retry on transient failures. It is the only component that
// talks to the network during a render cycle.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"cruscotto/internal/cache"
	"cruscotto/internal/core"
	"cruscotto/internal/observability"
	"cruscotto/internal/sheets"
)

const cacheKey = "dataset"

type Loader struct {
	source  sheets.Source
	cache   *cache.TTL[core.Dataset]
	timeout time.Duration
	retries int
	backoff time.Duration
	now     func() time.Time
}

type Option func(*Loader)

// WithBackoff overrides the delay between retry attempts.
func WithBackoff(d time.Duration) Option {
	return func(l *Loader) { l.backoff = d }
}

// WithClock overrides the time source; tests use it for LoadedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) { l.now = now }
}

// New builds a Loader. ttl bounds result freshness, timeout bounds each
// fetch attempt, retries is the number of extra attempts made on
// sheets.ErrTransient (authentication and not-found errors never retry).
func New(source sheets.Source, ttl, timeout time.Duration, retries int, opts ...Option) *Loader {
	l := &Loader{
		source:  source,
		cache:   cache.NewTTL[core.Dataset](ttl),
		timeout: timeout,
		retries: retries,
		backoff: 500 * time.Millisecond,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the current dataset, serving from cache inside the freshness
// window. A fetch reads the logbook and the client map concurrently; both
// must succeed for the dataset to be cached.
func (l *Loader) Load(ctx context.Context) (core.Dataset, error) {
	if ds, ok := l.cache.Get(cacheKey); ok {
		observability.RecordLoad("cache_hit")
		return ds, nil
	}

	var lastErr error
	for attempt := 0; attempt <= l.retries; attempt++ {
		if attempt > 0 {
			slog.InfoContext(ctx, "Retrying dataset load", "attempt", attempt, "error", lastErr)
			select {
			case <-time.After(l.backoff):
			case <-ctx.Done():
				return core.Dataset{}, ctx.Err()
			}
		}

		ds, err := l.fetch(ctx)
		if err == nil {
			l.cache.Set(cacheKey, ds)
			observability.RecordLoad("ok")
			return ds, nil
		}
		lastErr = err
		if !errors.Is(err, sheets.ErrTransient) {
			break
		}
	}

	observability.RecordLoad("error")
	return core.Dataset{}, fmt.Errorf("load dataset: %w", lastErr)
}

// Invalidate drops the cached dataset so the next Load hits the source.
func (l *Loader) Invalidate() {
	l.cache.Delete(cacheKey)
}

func (l *Loader) fetch(ctx context.Context) (core.Dataset, error) {
	cctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	start := l.now()
	var (
		records   []core.Record
		clientMap map[string]string
	)
	g, gctx := errgroup.WithContext(cctx)
	g.Go(func() error {
		var err error
		records, err = l.source.ReadLogbook(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		clientMap, err = l.source.ReadClientMap(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Dataset{}, sheets.Classify(err)
	}
	observability.RecordLoadDuration(l.now().Sub(start))

	return core.Dataset{
		Records:   records,
		ClientMap: clientMap,
		LoadedAt:  l.now(),
	}, nil
}
