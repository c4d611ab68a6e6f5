// Package export produces downloadable workbooks from a filtered record set.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"cruscotto/internal/core"
	"cruscotto/internal/metrics"
)

const (
	detailSheet  = "Dettaglio"
	summarySheet = "Riepilogo"
)

var detailHeaders = []string{
	"Data", "Collaboratore", "Reparto", "Attività", "Cliente",
	"Ore", "Costo Orario", "Costo", "Importo Fatturato",
}

// WriteXLSX writes a two-sheet workbook: the filtered rows on "Dettaglio"
// and per-collaborator totals plus the headline numbers on "Riepilogo".
// Client names go through the dataset's display mapping.
func WriteXLSX(w io.Writer, ds core.Dataset, records []core.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", detailSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeDetail(f, ds, records); err != nil {
		return err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("add summary sheet: %w", err)
	}
	if err := writeSummary(f, records); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeDetail(f *excelize.File, ds core.Dataset, records []core.Record) error {
	for col, h := range detailHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(detailSheet, cell, h); err != nil {
			return fmt.Errorf("detail header: %w", err)
		}
	}
	for i, r := range records {
		row := i + 2
		values := []any{
			r.Date.Format("02/01/2006"),
			r.Collaborator,
			r.Department,
			r.Activity,
			ds.DisplayClient(r.Client),
			r.Hours(),
			r.Rate.Euros(),
			r.Cost().Euros(),
			r.Billed.Euros(),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(detailSheet, cell, v); err != nil {
				return fmt.Errorf("detail row %d: %w", row, err)
			}
		}
	}
	return nil
}

func writeSummary(f *excelize.File, records []core.Record) error {
	headers := []string{"Collaboratore", "Ore", "Costo", "Fatturato", "Margine"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(summarySheet, cell, h); err != nil {
			return fmt.Errorf("summary header: %w", err)
		}
	}

	groups := metrics.SummarizeBy(records, metrics.ByCollaborator)
	row := 2
	for _, g := range groups {
		values := []any{g.Key, g.Hours(), g.Cost.Euros(), g.Revenue.Euros(), g.Margin().Euros()}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(summarySheet, cell, v); err != nil {
				return fmt.Errorf("summary row %d: %w", row, err)
			}
		}
		row++
	}

	total := metrics.Summarize(records)
	values := []any{"Totale", total.Hours(), total.Cost.Euros(), total.Revenue.Euros(), total.Margin().Euros()}
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		if err := f.SetCellValue(summarySheet, cell, v); err != nil {
			return fmt.Errorf("summary total: %w", err)
		}
	}
	return nil
}
