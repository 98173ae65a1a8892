package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	SheetSummary    = "Summary"
	SheetConductors = "Conductors"
	SheetSizes      = "Sizes"
)

// WriteXLSX renders a workbook with a summary sheet, the conductor list and
// the per-size analysis. Numbers are stored unrounded.
func WriteXLSX(w io.Writer, doc Document) error {
	rep := doc.Report
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}

	recommendation := "NONE COMPLIANT"
	if rep.Recommendation != nil {
		recommendation = rep.Recommendation.TradeSize
	}
	summary := [][]any{
		{"Title", doc.Title},
		{"Document", doc.ID},
		{"Project", doc.Project},
		{"Author", doc.Author},
		{"Date", doc.Generated.Format(dateLayout)},
		{"Standard", rep.Standard},
		{"Material", string(rep.Material)},
		{"Conductors", rep.ConductorCount},
		{"Required area (mm²)", rep.RequiredArea},
		{"Fill factor", rep.FillFactor},
		{"Citation", rep.Fill.Citation},
		{"Recommended size", recommendation},
	}
	if rep.Advisory != nil {
		summary = append(summary, []any{"Advisory", rep.Advisory.Message})
	}
	if err := writeRows(f, SheetSummary, summary); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetConductors); err != nil {
		return err
	}
	rows := [][]any{{"#", "Insulation", "Gauge", "Quantity", "Unit area (mm²)", "Total area (mm²)"}}
	for i, e := range rep.Conductors {
		rows = append(rows, []any{i + 1, string(e.Insulation), e.Gauge, e.Quantity, e.UnitArea, e.TotalArea})
	}
	if err := writeRows(f, SheetConductors, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetSizes); err != nil {
		return err
	}
	rows = [][]any{{"Trade size", "Conduit area (mm²)", "Available area (mm²)", "Fill %", "Compliant"}}
	for _, s := range rep.Sizes {
		rows = append(rows, []any{s.TradeSize, s.ConduitArea, s.AvailableArea, s.FillPercent, s.Compliant})
	}
	if err := writeRows(f, SheetSizes, rows); err != nil {
		return err
	}

	return f.Write(w)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
