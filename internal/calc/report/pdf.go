package report

import (
	"fmt"
	"io"

	"github.com/phpdave11/gofpdf"
)

// WritePDF renders an A4 report. Core fonts are cp1252, so text passes
// through the translator for "²".
func WritePDF(w io.Writer, doc Document) error {
	rep := doc.Report

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(doc.Title, true)
	pdf.SetAuthor(doc.Author, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(fmt.Sprintf("%s: %s", doc.Title, rep.Material)))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, tr(rep.Standard))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Document: %s", doc.ID))
	pdf.Ln(6)
	if doc.Project != "" {
		pdf.Cell(0, 6, tr(fmt.Sprintf("Project: %s", doc.Project)))
		pdf.Ln(6)
	}
	if doc.Author != "" {
		pdf.Cell(0, 6, tr(fmt.Sprintf("Author: %s", doc.Author)))
		pdf.Ln(6)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", doc.Generated.Format(dateLayout)))
	pdf.Ln(10)

	heading := func(s string) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, s)
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 10)
	}

	heading("Conductors")
	for i, e := range rep.Conductors {
		pdf.Cell(0, 6, tr(fmt.Sprintf("%d. %s #%s x %d: %.2f mm² x %d = %.2f mm²",
			i+1, e.Insulation, e.Gauge, e.Quantity, e.UnitArea, e.Quantity, e.TotalArea)))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	heading("Summary")
	pdf.Cell(0, 6, fmt.Sprintf("Total conductors: %d", rep.ConductorCount))
	pdf.Ln(6)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Required area: %.2f mm²", rep.RequiredArea)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Fill factor: %.0f%% (%s)", rep.FillFactor*100, rep.Fill.Citation))
	pdf.Ln(6)
	if rep.Advisory != nil {
		pdf.SetTextColor(180, 83, 9)
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("Warning: %s. See %s.", rep.Advisory.Message, rep.Advisory.Citation)), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(4)

	heading(fmt.Sprintf("%s trade sizes", rep.Material))
	widths := []float64{30, 40, 40, 30, 40}
	pdf.SetFillColor(230, 230, 230)
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range []string{"Size", "Area (mm²)", "Available (mm²)", "Fill", "Status"} {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 10)
	for _, s := range rep.Sizes {
		cells := []string{
			s.TradeSize + "\"",
			fmt.Sprintf("%.0f", s.ConduitArea),
			fmt.Sprintf("%.2f", s.AvailableArea),
			fmt.Sprintf("%.1f%%", s.FillPercent),
			status(s),
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 6, c, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(6)

	heading("Result")
	if rec := rep.Recommendation; rec != nil {
		pdf.SetTextColor(16, 120, 80)
		pdf.Cell(0, 6, fmt.Sprintf("Recommended conduit: %s %s\"", rep.Material, rec.TradeSize))
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(6)
		for _, a := range rep.Alternatives() {
			pdf.Cell(0, 6, fmt.Sprintf("Alternative: %s %s\" (fill %.1f%%)", rep.Material, a.TradeSize, a.FillPercent))
			pdf.Ln(6)
		}
		pdf.Ln(2)
		pdf.MultiCell(0, 6, tr(TechnicalSpec(rep)), "", "L", false)
	} else {
		pdf.SetTextColor(200, 40, 40)
		pdf.Cell(0, 6, fmt.Sprintf("No standard %s trade size complies.", rep.Material))
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(6)
		for _, g := range Guidance() {
			pdf.Cell(0, 6, "- "+g)
			pdf.Ln(6)
		}
	}

	return pdf.Output(w)
}
