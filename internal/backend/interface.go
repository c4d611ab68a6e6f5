package backend

import (
	"context"

	"cruscotto/internal/sheets"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result contains the backend source and optional cleanup function.
type Result struct {
	Source  sheets.Source
	Cleanup CleanupFunc
}

// Factory creates data sources based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleLogbookSheetName   string
	GoogleClientMapSheetName string

	// Memory backend specific
	DataDirectory string
}

// Type selects which data source backs the dashboard.
type Type string

const (
	SQLiteBackend Type = "sqlite"
	SheetsBackend Type = "sheets"
	MemoryBackend Type = "memory"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
