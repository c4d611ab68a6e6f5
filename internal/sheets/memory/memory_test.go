package memory

import (
	"context"
	"errors"
	"testing"

	"cruscotto/internal/core"
)

func TestStoreReadLogbookCopies(t *testing.T) {
	records := []core.Record{
		{Date: core.NewDate(2025, 1, 1), Collaborator: "Anna", Minutes: 60},
	}
	s := New(records, nil)

	got, err := s.ReadLogbook(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}

	// Mutating the returned slice must not affect the store.
	got[0].Collaborator = "Mallory"
	again, _ := s.ReadLogbook(context.Background())
	if again[0].Collaborator != "Anna" {
		t.Error("store contents mutated through returned slice")
	}
}

func TestStoreSetError(t *testing.T) {
	s := New(nil, nil)
	boom := errors.New("boom")
	s.SetError(boom)

	if _, err := s.ReadLogbook(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected injected error, got %v", err)
	}
	if _, err := s.ReadClientMap(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected injected error, got %v", err)
	}

	s.SetError(nil)
	if _, err := s.ReadLogbook(context.Background()); err != nil {
		t.Errorf("expected recovery after clearing error, got %v", err)
	}
}

func TestNewFromFilesFallback(t *testing.T) {
	s := NewFromFiles(t.TempDir())
	records, err := s.ReadLogbook(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) == 0 {
		t.Fatal("expected fixture records when seed files are absent")
	}
	for i, r := range records {
		if err := r.Validate(); err != nil {
			t.Errorf("fixture record %d invalid: %v", i, err)
		}
	}
}
