package google

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cruscotto/internal/core"
)

// Header aliases accepted for each logbook column. The source sheet has
// changed header wording over time, so each column matches the first alias
// found, case-insensitively.
var logbookHeaders = map[string][]string{
	"date":         {"Data"},
	"collaborator": {"Nome", "Collaboratore"},
	"department":   {"Reparto", "Reparto1"},
	"activity":     {"Macro attività", "Attività"},
	"client":       {"Cliente"},
	"minutes":      {"Minuti Impiegati", "Minuti"},
	"hours":        {"Ore"},
	"rate":         {"Costo Orario", "Tariffa"},
	"billed":       {"Importo Fatturato", "Importo", "Fatturato"},
	"note":         {"Note"},
}

var dateLayouts = []string{"02/01/2006", "2006-01-02", "02-01-2006", "2006/01/02"}

// parseLogbook converts the raw values matrix (first row = headers) into
// Records. Rows missing a usable date or collaborator are quarantined and
// reported through the second return value.
func parseLogbook(values [][]interface{}) ([]core.Record, int, error) {
	if len(values) == 0 {
		return nil, 0, nil
	}
	headers := toStrings(values[0])
	cols := map[string]int{}
	for key, aliases := range logbookHeaders {
		cols[key] = -1
		for _, alias := range aliases {
			if idx := indexOf(headers, alias); idx != -1 {
				cols[key] = idx
				break
			}
		}
	}
	if cols["date"] == -1 || cols["collaborator"] == -1 {
		return nil, 0, fmt.Errorf("unexpected logbook header: got %v", headers)
	}

	var out []core.Record
	quarantined := 0
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if isBlankRow(row) {
			continue
		}
		rec, err := parseLogbookRow(row, cols)
		if err != nil {
			quarantined++
			continue
		}
		out = append(out, rec)
	}
	return out, quarantined, nil
}

func parseLogbookRow(row []string, cols map[string]int) (core.Record, error) {
	date, err := parseDate(safeGet(row, cols["date"]))
	if err != nil {
		return core.Record{}, err
	}

	minutes, err := parseMinutes(safeGet(row, cols["minutes"]), safeGet(row, cols["hours"]))
	if err != nil {
		return core.Record{}, err
	}

	rec := core.Record{
		Date:         date,
		Collaborator: safeGet(row, cols["collaborator"]),
		Department:   safeGet(row, cols["department"]),
		Activity:     safeGet(row, cols["activity"]),
		Client:       safeGet(row, cols["client"]),
		Minutes:      minutes,
		Note:         safeGet(row, cols["note"]),
	}

	if v := safeGet(row, cols["rate"]); v != "" {
		cents, err := core.ParseEuroCents(v)
		if err != nil {
			return core.Record{}, err
		}
		rec.Rate = core.Money{Cents: cents}
	}
	if v := safeGet(row, cols["billed"]); v != "" {
		cents, err := core.ParseEuroCents(v)
		if err != nil {
			return core.Record{}, err
		}
		rec.Billed = core.Money{Cents: cents}
	}

	if err := rec.Validate(); err != nil {
		return core.Record{}, err
	}
	return rec, nil
}

func parseDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, core.ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.Date{Time: t}, nil
		}
	}
	return core.Date{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, s)
}

// parseMinutes reads time worked from either the minutes column (integer) or
// the hours column (decimal, comma or dot). Minutes wins when both are set.
func parseMinutes(minutesStr, hoursStr string) (int64, error) {
	minutesStr = strings.TrimSpace(minutesStr)
	if minutesStr != "" {
		m, err := strconv.ParseInt(minutesStr, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid minutes %q", minutesStr)
		}
		return m, nil
	}
	hoursStr = strings.TrimSpace(strings.Replace(hoursStr, ",", ".", 1))
	if hoursStr == "" {
		return 0, errors.New("missing time worked")
	}
	h, err := strconv.ParseFloat(hoursStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hours %q", hoursStr)
	}
	return int64(h*60 + 0.5), nil
}

// parseClientMap reads the two-column mapping sheet: raw name in A, display
// name in B. The header row is skipped when present.
func parseClientMap(values [][]interface{}) map[string]string {
	out := map[string]string{}
	for i, rowVals := range values {
		row := toStrings(rowVals)
		raw := safeGet(row, 0)
		display := safeGet(row, 1)
		if raw == "" || display == "" {
			continue
		}
		if i == 0 && strings.EqualFold(raw, "Cliente") {
			continue
		}
		out[raw] = display
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
