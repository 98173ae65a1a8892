package report

import (
	"bytes"
	"io"
	"strings"

	"Conduit/internal/calc/conduit"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

const dateLayout = "2006-01-02 15:04"

// WriteText renders the plain text report: conductors with their area
// formulas, the fill factor and its citation, the per-size analysis, a
// summary table and the recommendation or the guidance list.
func WriteText(w io.Writer, doc Document) error {
	var b bytes.Buffer
	rep := doc.Report
	p := func(format string, a ...any) { printer.Fprintf(&b, format, a...) }

	p("%s: %s\n", strings.ToUpper(doc.Title), rep.Material)
	p("%s\n", rep.Standard)
	p("%s\n", rule('=', 55))
	p("Document: %s\n", doc.ID)
	if doc.Project != "" {
		p("Project: %s\n", doc.Project)
	}
	if doc.Author != "" {
		p("Author: %s\n", doc.Author)
	}
	p("Date: %s\n\n", doc.Generated.Format(dateLayout))

	p("CONDUCTORS\n%s\n", rule('-', 35))
	for i, e := range rep.Conductors {
		p("%d. %s #%s x %d conductor(s)\n", i+1, e.Insulation, e.Gauge, e.Quantity)
		p("   Area: %.2f mm² x %d = %.2f mm²\n\n", e.UnitArea, e.Quantity, e.TotalArea)
	}

	p("SUMMARY\n%s\n", rule('-', 25))
	p("- Total conductors: %d\n", rep.ConductorCount)
	p("- Required area: %.2f mm²\n", rep.RequiredArea)
	p("- Fill factor: %.0f%%\n", rep.FillFactor*100)

	p("\nFORMULAS\n%s\n", rule('-', 25))
	p("1. Required area = Σ(unit area x quantity)\n")
	terms := make([]string, 0, len(rep.Conductors))
	for _, e := range rep.Conductors {
		terms = append(terms, printer.Sprintf("(%.2f x %d)", e.UnitArea, e.Quantity))
	}
	p("   = %s = %.2f mm²\n", strings.Join(terms, " + "), rep.RequiredArea)
	p("2. Available area = conduit area x factor (%.2f)\n", rep.FillFactor)
	p("3. Fill %% = (required area / conduit area) x 100\n")
	p("4. Criterion: required area <= available area\n")
	p("\n- Reference: %s - %s\n", rep.Fill.Citation, rep.Standard)
	p("  (%s)\n", rep.Fill.Description)

	if rep.Advisory != nil {
		p("\nWARNING\n")
		p("   %s\n", rep.Advisory.Message)
		p("   See %s for grouping derating factors.\n", rep.Advisory.Citation)
	}

	p("\n%s TRADE SIZE ANALYSIS\n%s\n", rep.Material, rule('-', 35))
	for _, s := range rep.Sizes {
		p("%s %s\":\n", rep.Material, s.TradeSize)
		p("  Conduit area: %.0f mm²\n", s.ConduitArea)
		p("  Available area: %.0f mm² (%.0f%%)\n", s.AvailableArea, rep.FillFactor*100)
		p("  Calculation: %.0f x %.2f = %.2f mm²\n", s.ConduitArea, rep.FillFactor, s.AvailableArea)
		p("  Fill: %.1f%%\n", s.FillPercent)
		p("  Calculation: (%.2f / %.0f) x 100 = %.1f%%\n", rep.RequiredArea, s.ConduitArea, s.FillPercent)
		if s.Compliant {
			p("  Status: %s\n\n", status(s))
		} else {
			p("  Status: %s (exceeds fill factor)\n\n", status(s))
		}
	}

	p("SUMMARY TABLE - %s\n%s\n", rep.Material, rule('=', 60))
	p("%-10s %-12s %-12s %-10s %s\n", "Size", "Area", "Available", "Fill", "Status")
	p("%s\n", rule('-', 60))
	for _, s := range rep.Sizes {
		p("%-10s %-12s %-12s %-10s %s\n",
			s.TradeSize+"\"",
			printer.Sprintf("%.0f mm²", s.ConduitArea),
			printer.Sprintf("%.0f mm²", s.AvailableArea),
			printer.Sprintf("%.1f%%", s.FillPercent),
			status(s))
	}
	p("%s\n\n", rule('=', 60))

	p("RESULT\n%s\n", rule('-', 20))
	if rec := rep.Recommendation; rec != nil {
		p("RECOMMENDED CONDUIT: %s %s\"\n", rep.Material, rec.TradeSize)
		p("   - Conduit area: %.0f mm²\n", rec.ConduitArea)
		p("   - Available: %.0f mm² (factor %.2f)\n", rec.AvailableArea, rep.FillFactor)
		p("   - Fill: %.1f%%\n", rec.FillPercent)
		p("   - Status: COMPLIANT with %s\n\n", rep.Standard)

		if alts := rep.Alternatives(); len(alts) > 0 {
			p("VALID ALTERNATIVES\n")
			for i, a := range alts {
				p("   %d. %s %s\" - Area: %.0f mm² - Available: %.0f mm² - Fill: %.1f%% - COMPLIANT\n",
					i+1, rep.Material, a.TradeSize, a.ConduitArea, a.AvailableArea, a.FillPercent)
			}
			p("\n")
		}

		p("TECHNICAL SPECIFICATION\n%s\n", TechnicalSpec(rep))
		if rep.Advisory != nil {
			p("\nNOTE\nVerify additional grouping derating factors (%s).\n", rep.Advisory.Citation)
		}
	} else {
		p("NONE COMPLIANT\n")
		p("   No standard %s trade size complies with %s.\n", rep.Material, rep.Standard)
		p("   RECOMMENDATIONS:\n")
		for _, g := range Guidance() {
			p("   - %s\n", g)
		}
	}

	_, err := w.Write(b.Bytes())
	return err
}

func status(s conduit.SizeResult) string {
	if s.Compliant {
		return "COMPLIANT"
	}
	return "NOT COMPLIANT"
}

func rule(c rune, n int) string {
	return strings.Repeat(string(c), n)
}
