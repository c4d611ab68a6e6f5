package sheets

import (
	"context"

	"cruscotto/internal/core"
)

// Ports for outbound data sources.
type (
	// LogbookReader returns every activity record from the source, coerced
	// into the fixed Record shape. Malformed rows are quarantined at the
	// adapter boundary, never returned.
	LogbookReader interface {
		ReadLogbook(ctx context.Context) ([]core.Record, error)
	}

	// ClientMapReader returns the client display-name mapping, if the source
	// has one. An empty map is a valid result.
	ClientMapReader interface {
		ReadClientMap(ctx context.Context) (map[string]string, error)
	}

	// Source is the full dataset source a backend provides.
	Source interface {
		LogbookReader
		ClientMapReader
	}
)
