package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cruscotto/internal/core"
	"cruscotto/internal/observability"
	ports "cruscotto/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc            *gsheet.Service
	spreadsheetID  string
	logbookSheet   string
	clientMapSheet string
}

// Ensure interface conformance
var (
	_ ports.LogbookReader   = (*Client)(nil)
	_ ports.ClientMapReader = (*Client)(nil)
)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Optional sheet names: GOOGLE_LOGBOOK_SHEET_NAME (default "Logbook"),
// GOOGLE_CLIENT_MAP_SHEET_NAME (default "Mappa").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	logbook := strings.TrimSpace(os.Getenv("GOOGLE_LOGBOOK_SHEET_NAME"))
	if logbook == "" {
		logbook = "Logbook"
	}
	clientMap := strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_MAP_SHEET_NAME"))
	if clientMap == "" {
		clientMap = "Mappa"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:            svc,
		spreadsheetID:  spreadsheetID,
		logbookSheet:   logbook,
		clientMapSheet: clientMap,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ReadLogbook fetches the logbook worksheet and coerces every row into a
// Record. Rows that fail coercion are quarantined: counted, logged and
// skipped, so untyped data never reaches the processing layer.
func (c *Client) ReadLogbook(ctx context.Context) ([]core.Record, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:Z", c.logbookSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, ports.Classify(err))
	}
	records, quarantined, err := parseLogbook(resp.Values)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", c.logbookSheet, err)
	}
	if quarantined > 0 {
		observability.RecordQuarantined(quarantined)
		slog.WarnContext(ctx, "Quarantined malformed logbook rows",
			"sheet", c.logbookSheet, "rows", quarantined, "kept", len(records))
	}
	return records, nil
}

// ReadClientMap fetches the optional client display-name mapping. A missing
// worksheet is not an error: the dashboard simply shows raw client names.
func (c *Client) ReadClientMap(ctx context.Context) (map[string]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:B", c.clientMapSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		classified := ports.Classify(err)
		if errors.Is(classified, ports.ErrNotFound) {
			slog.DebugContext(ctx, "Client map sheet missing, using raw names", "sheet", c.clientMapSheet)
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", rng, classified)
	}
	return parseClientMap(resp.Values), nil
}
