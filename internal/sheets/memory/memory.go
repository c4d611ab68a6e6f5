package memory

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"cruscotto/internal/core"
	ports "cruscotto/internal/sheets"
)

// Store is a deterministic in-memory source, used by tests and the default
// development backend.
type Store struct {
	mu        sync.Mutex
	records   []core.Record
	clientMap map[string]string
	err       error
}

var _ ports.Source = (*Store)(nil)

func New(records []core.Record, clientMap map[string]string) *Store {
	if clientMap == nil {
		clientMap = map[string]string{}
	}
	return &Store{records: records, clientMap: clientMap}
}

// NewFromFiles seeds the store from base/seed_logbook.csv and
// base/seed_clientmap.csv when present, falling back to a small fixture.
func NewFromFiles(base string) *Store {
	records := readLogbookCSV(filepath.Join(base, "seed_logbook.csv"))
	if len(records) == 0 {
		records = []core.Record{
			{Date: core.NewDate(2025, 1, 10), Collaborator: "Anna", Department: "Design", Activity: "Grafica", Client: "Acme", Minutes: 120, Rate: core.Money{Cents: 2500}, Billed: core.Money{Cents: 9000}},
			{Date: core.NewDate(2025, 1, 11), Collaborator: "Bruno", Department: "Dev", Activity: "Sviluppo", Client: "Zeiss", Minutes: 240, Rate: core.Money{Cents: 3000}, Billed: core.Money{Cents: 20000}},
			{Date: core.NewDate(2025, 1, 12), Collaborator: "Anna", Department: "Design", Activity: "Grafica", Client: "Zeiss", Minutes: 60, Rate: core.Money{Cents: 2500}, Billed: core.Money{Cents: 5000}},
		}
	}
	clientMap := readClientMapCSV(filepath.Join(base, "seed_clientmap.csv"))
	return New(records, clientMap)
}

// SetError makes every read fail with err until cleared; tests use it to
// simulate source failures.
func (s *Store) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Store) ReadLogbook(_ context.Context) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]core.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *Store) ReadClientMap(_ context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]string, len(s.clientMap))
	for k, v := range s.clientMap {
		out[k] = v
	}
	return out, nil
}

// readLogbookCSV reads date,collaborator,department,activity,client,minutes,rate,billed rows.
func readLogbookCSV(path string) []core.Record {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var out []core.Record
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil || len(row) < 6 {
			continue
		}
		d, err := parseISODate(row[0])
		if err != nil {
			continue // header or malformed
		}
		minutes, err := strconv.ParseInt(strings.TrimSpace(row[5]), 10, 64)
		if err != nil {
			continue
		}
		rec := core.Record{
			Date:         d,
			Collaborator: strings.TrimSpace(row[1]),
			Department:   strings.TrimSpace(row[2]),
			Activity:     strings.TrimSpace(row[3]),
			Client:       strings.TrimSpace(row[4]),
			Minutes:      minutes,
		}
		if len(row) > 6 {
			if cents, err := core.ParseEuroCents(row[6]); err == nil {
				rec.Rate = core.Money{Cents: cents}
			}
		}
		if len(row) > 7 {
			if cents, err := core.ParseEuroCents(row[7]); err == nil {
				rec.Billed = core.Money{Cents: cents}
			}
		}
		if rec.Validate() != nil {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func readClientMapCSV(path string) map[string]string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	out := map[string]string{}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil || len(row) < 2 {
			continue
		}
		raw := strings.TrimSpace(row[0])
		display := strings.TrimSpace(row[1])
		if raw == "" || display == "" || strings.EqualFold(raw, "Cliente") {
			continue
		}
		out[raw] = display
	}
	return out
}

func parseISODate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return core.Date{}, core.ErrInvalidDate
	}
	y, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	d, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return core.Date{}, core.ErrInvalidDate
	}
	return core.NewDate(y, m, d), nil
}
