// Package storage persists dataset snapshots in SQLite so the dashboard can
// serve data when Google Sheets is unreachable. The snapshot worker writes,
// the web app reads.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"cruscotto/internal/core"
	"cruscotto/internal/sheets"
)

const dateLayout = "2006-01-02"

type SnapshotRepository struct {
	db *sql.DB
}

var _ sheets.Source = (*SnapshotRepository)(nil)

func NewSnapshotRepository(dbPath string) (*SnapshotRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SnapshotRepository{db: db}, nil
}

func (r *SnapshotRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveDataset replaces the stored snapshot in a single transaction. A failed
// save leaves the previous snapshot intact.
func (r *SnapshotRepository) SaveDataset(ctx context.Context, ds core.Dataset) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM logbook`); err != nil {
		return fmt.Errorf("clear logbook: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM client_map`); err != nil {
		return fmt.Errorf("clear client map: %w", err)
	}

	const insertRecord = `
		INSERT INTO logbook (work_date, collaborator, department, activity, client, minutes, rate_cents, billed_cents, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, rec := range ds.Records {
		_, err := tx.ExecContext(ctx, insertRecord,
			rec.Date.Format(dateLayout),
			rec.Collaborator,
			rec.Department,
			rec.Activity,
			rec.Client,
			rec.Minutes,
			rec.Rate.Cents,
			rec.Billed.Cents,
			rec.Note,
		)
		if err != nil {
			return fmt.Errorf("insert logbook row: %w", err)
		}
	}

	const insertMapping = `INSERT INTO client_map (raw_name, display_name) VALUES (?, ?)`
	for raw, display := range ds.ClientMap {
		if _, err := tx.ExecContext(ctx, insertMapping, raw, display); err != nil {
			return fmt.Errorf("insert client mapping: %w", err)
		}
	}

	refreshedAt := ds.LoadedAt
	if refreshedAt.IsZero() {
		refreshedAt = time.Now()
	}
	const upsertMeta = `
		INSERT INTO snapshot_meta (id, refreshed_at) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET refreshed_at = excluded.refreshed_at`
	if _, err := tx.ExecContext(ctx, upsertMeta, refreshedAt.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("update snapshot meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot saved",
		"records", len(ds.Records),
		"client_mappings", len(ds.ClientMap))
	return nil
}

// ReadLogbook implements sheets.LogbookReader. An empty snapshot reports
// sheets.ErrNotFound so callers can distinguish "never refreshed" from an
// empty worksheet.
func (r *SnapshotRepository) ReadLogbook(ctx context.Context) ([]core.Record, error) {
	const query = `
		SELECT work_date, collaborator, department, activity, client, minutes, rate_cents, billed_cents, note
		FROM logbook ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query logbook: %w", err)
	}
	defer rows.Close()

	var records []core.Record
	for rows.Next() {
		var (
			rec     core.Record
			rawDate string
		)
		err := rows.Scan(&rawDate, &rec.Collaborator, &rec.Department, &rec.Activity,
			&rec.Client, &rec.Minutes, &rec.Rate.Cents, &rec.Billed.Cents, &rec.Note)
		if err != nil {
			return nil, fmt.Errorf("scan logbook row: %w", err)
		}
		d, err := time.Parse(dateLayout, rawDate)
		if err != nil {
			return nil, fmt.Errorf("parse stored date %q: %w", rawDate, err)
		}
		rec.Date = core.Date{Time: d}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate logbook: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("snapshot is empty: %w", sheets.ErrNotFound)
	}
	return records, nil
}

// ReadClientMap implements sheets.ClientMapReader. A missing mapping is not
// an error: records simply keep their raw client names.
func (r *SnapshotRepository) ReadClientMap(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT raw_name, display_name FROM client_map`)
	if err != nil {
		return nil, fmt.Errorf("query client map: %w", err)
	}
	defer rows.Close()

	mapping := make(map[string]string)
	for rows.Next() {
		var raw, display string
		if err := rows.Scan(&raw, &display); err != nil {
			return nil, fmt.Errorf("scan client mapping: %w", err)
		}
		mapping[raw] = display
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate client map: %w", err)
	}
	return mapping, nil
}

// RefreshedAt returns when the snapshot was last written, or zero when no
// snapshot exists yet.
func (r *SnapshotRepository) RefreshedAt(ctx context.Context) (time.Time, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT refreshed_at FROM snapshot_meta WHERE id = 1`).Scan(&raw)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query snapshot meta: %w", err)
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse refreshed_at %q: %w", raw, err)
	}
	return ts, nil
}
