package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"cruscotto/internal/core"
)

func TestWriteXLSX(t *testing.T) {
	ds := core.Dataset{
		ClientMap: map[string]string{"ACME": "ACME S.p.A."},
	}
	records := []core.Record{
		{
			Date:         core.NewDate(2025, 3, 10),
			Collaborator: "Anna",
			Department:   "Sviluppo",
			Activity:     "Consulenza",
			Client:       "ACME",
			Minutes:      120,
			Rate:         core.Money{Cents: 5000},
			Billed:       core.Money{Cents: 30000},
		},
		{
			Date:         core.NewDate(2025, 3, 11),
			Collaborator: "Bruno",
			Department:   "Design",
			Activity:     "Grafica",
			Client:       "Beta",
			Minutes:      60,
			Rate:         core.Money{Cents: 4000},
			Billed:       core.Money{Cents: 10000},
		},
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, ds, records); err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Dettaglio" || sheets[1] != "Riepilogo" {
		t.Fatalf("sheets = %v", sheets)
	}

	got, err := f.GetCellValue("Dettaglio", "E2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if got != "ACME S.p.A." {
		t.Errorf("client cell = %q, want display name", got)
	}

	date, _ := f.GetCellValue("Dettaglio", "A2")
	if date != "10/03/2025" {
		t.Errorf("date cell = %q", date)
	}

	// Summary: two collaborator rows plus the total row.
	totalLabel, _ := f.GetCellValue("Riepilogo", "A4")
	if totalLabel != "Totale" {
		t.Errorf("summary A4 = %q, want Totale", totalLabel)
	}
	totalRevenue, _ := f.GetCellValue("Riepilogo", "D4")
	if totalRevenue != "400" {
		t.Errorf("total revenue = %q, want 400", totalRevenue)
	}
}

func TestWriteXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, core.Dataset{}, nil); err != nil {
		t.Fatalf("empty export must still produce a workbook: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	header, _ := f.GetCellValue("Dettaglio", "A1")
	if header != "Data" {
		t.Errorf("header = %q", header)
	}
}
