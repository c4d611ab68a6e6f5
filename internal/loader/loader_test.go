package loader

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cruscotto/internal/core"
	"cruscotto/internal/sheets"
)

// fakeSource serves a scripted sequence of logbook errors before succeeding
// and counts every call it receives.
type fakeSource struct {
	mu           sync.Mutex
	logbookCalls int
	mapCalls     int
	failures     []error
	records      []core.Record
	clientMap    map[string]string
}

func (f *fakeSource) ReadLogbook(ctx context.Context) ([]core.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logbookCalls++
	if len(f.failures) > 0 {
		err := f.failures[0]
		f.failures = f.failures[1:]
		return nil, err
	}
	return f.records, nil
}

func (f *fakeSource) ReadClientMap(ctx context.Context) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mapCalls++
	return f.clientMap, nil
}

func (f *fakeSource) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logbookCalls
}

func testRecords() []core.Record {
	return []core.Record{
		{
			Date:         core.NewDate(2025, 3, 10),
			Collaborator: "Anna",
			Department:   "Sviluppo",
			Activity:     "Consulenza",
			Client:       "ACME",
			Minutes:      120,
			Rate:         core.Money{Cents: 5000},
			Billed:       core.Money{Cents: 20000},
		},
	}
}

func TestLoadRetriesTransientOnce(t *testing.T) {
	src := &fakeSource{
		failures:  []error{sheets.ErrTransient},
		records:   testRecords(),
		clientMap: map[string]string{"ACME": "ACME S.p.A."},
	}
	l := New(src, time.Minute, time.Second, 2, WithBackoff(time.Millisecond))

	ds, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := src.calls(); got != 2 {
		t.Errorf("expected exactly 2 logbook fetches, got %d", got)
	}
	if len(ds.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(ds.Records))
	}
	if ds.DisplayClient("ACME") != "ACME S.p.A." {
		t.Errorf("client map not carried into dataset")
	}
}

func TestLoadDoesNotRetryTerminalErrors(t *testing.T) {
	src := &fakeSource{
		failures: []error{sheets.ErrAuthentication},
	}
	l := New(src, time.Minute, time.Second, 3, WithBackoff(time.Millisecond))

	_, err := l.Load(context.Background())
	if !errors.Is(err, sheets.ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
	if got := src.calls(); got != 1 {
		t.Errorf("terminal error must not be retried, got %d fetches", got)
	}
}

func TestLoadExhaustsRetries(t *testing.T) {
	src := &fakeSource{
		failures: []error{sheets.ErrTransient, sheets.ErrTransient, sheets.ErrTransient},
	}
	l := New(src, time.Minute, time.Second, 2, WithBackoff(time.Millisecond))

	_, err := l.Load(context.Background())
	if !errors.Is(err, sheets.ErrTransient) {
		t.Fatalf("expected transient error after exhausted retries, got %v", err)
	}
	if got := src.calls(); got != 3 {
		t.Errorf("expected 3 fetches (1 + 2 retries), got %d", got)
	}
}

func TestLoadServesFromCache(t *testing.T) {
	src := &fakeSource{records: testRecords()}
	l := New(src, time.Minute, time.Second, 0)

	if _, err := l.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := l.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := src.calls(); got != 1 {
		t.Errorf("second load should be a cache hit, got %d fetches", got)
	}

	l.Invalidate()
	if _, err := l.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := src.calls(); got != 2 {
		t.Errorf("load after Invalidate should hit the source, got %d fetches", got)
	}
}
