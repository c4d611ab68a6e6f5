package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cruscotto/internal/core"
	"cruscotto/internal/sheets"
)

func newTestRepo(t *testing.T) *SnapshotRepository {
	t.Helper()
	repo, err := NewSnapshotRepository(filepath.Join(t.TempDir(), "snapshot.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testDataset() core.Dataset {
	return core.Dataset{
		Records: []core.Record{
			{
				Date:         core.NewDate(2025, 4, 1),
				Collaborator: "Anna",
				Department:   "Sviluppo",
				Activity:     "Consulenza",
				Client:       "ACME",
				Minutes:      90,
				Rate:         core.Money{Cents: 4500},
				Billed:       core.Money{Cents: 15000},
				Note:         "kickoff",
			},
			{
				Date:         core.NewDate(2025, 4, 2),
				Collaborator: "Bruno",
				Minutes:      60,
			},
		},
		ClientMap: map[string]string{"ACME": "ACME S.p.A."},
		LoadedAt:  time.Date(2025, 4, 2, 18, 0, 0, 0, time.UTC),
	}
}

func TestSaveAndReadRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SaveDataset(ctx, testDataset()); err != nil {
		t.Fatalf("save dataset: %v", err)
	}

	records, err := repo.ReadLogbook(ctx)
	if err != nil {
		t.Fatalf("read logbook: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	r := records[0]
	if r.Collaborator != "Anna" || r.Minutes != 90 || r.Rate.Cents != 4500 || r.Billed.Cents != 15000 {
		t.Errorf("first record mismatch: %+v", r)
	}
	if r.Date.Year() != 2025 || r.Date.Month() != 4 || r.Date.Day() != 1 {
		t.Errorf("date mismatch: %v", r.Date)
	}

	mapping, err := repo.ReadClientMap(ctx)
	if err != nil {
		t.Fatalf("read client map: %v", err)
	}
	if mapping["ACME"] != "ACME S.p.A." {
		t.Errorf("client map = %v", mapping)
	}

	ts, err := repo.RefreshedAt(ctx)
	if err != nil {
		t.Fatalf("refreshed at: %v", err)
	}
	if !ts.Equal(time.Date(2025, 4, 2, 18, 0, 0, 0, time.UTC)) {
		t.Errorf("refreshed at = %v", ts)
	}
}

func TestSaveReplacesPreviousSnapshot(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SaveDataset(ctx, testDataset()); err != nil {
		t.Fatalf("first save: %v", err)
	}
	second := core.Dataset{
		Records: []core.Record{
			{Date: core.NewDate(2025, 5, 1), Collaborator: "Carla", Minutes: 30},
		},
	}
	if err := repo.SaveDataset(ctx, second); err != nil {
		t.Fatalf("second save: %v", err)
	}

	records, err := repo.ReadLogbook(ctx)
	if err != nil {
		t.Fatalf("read logbook: %v", err)
	}
	if len(records) != 1 || records[0].Collaborator != "Carla" {
		t.Errorf("snapshot not replaced: %+v", records)
	}
	mapping, err := repo.ReadClientMap(ctx)
	if err != nil {
		t.Fatalf("read client map: %v", err)
	}
	if len(mapping) != 0 {
		t.Errorf("stale client map survived: %v", mapping)
	}
}

func TestEmptySnapshotReportsNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.ReadLogbook(context.Background())
	if !errors.Is(err, sheets.ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty snapshot, got %v", err)
	}

	ts, err := repo.RefreshedAt(context.Background())
	if err != nil {
		t.Fatalf("refreshed at: %v", err)
	}
	if !ts.IsZero() {
		t.Errorf("expected zero refresh time, got %v", ts)
	}
}
