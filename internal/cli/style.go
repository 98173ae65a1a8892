package cli

import (
	"fmt"
	"io"

	"Conduit/internal/calc/conduit"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorOK   = lipgloss.Color("42")
	colorWarn = lipgloss.Color("214")
	colorFail = lipgloss.Color("196")
	colorDim  = lipgloss.Color("245")
)

// statusLine summarizes a report in one line. Styled output is only used
// when w is a terminal; otherwise a bracketed tag keeps it grep friendly.
func statusLine(w io.Writer, rep conduit.Report) string {
	styled := isTerminal(w)

	var tag, msg string
	var color lipgloss.Color
	switch {
	case rep.Recommendation != nil:
		tag, color = "OK", colorOK
		msg = fmt.Sprintf("%s %s\" complies (fill %.1f%%)", rep.Material, rep.Recommendation.TradeSize, rep.Recommendation.FillPercent)
	default:
		tag, color = "FAIL", colorFail
		msg = fmt.Sprintf("no %s trade size complies for %.2f mm²", rep.Material, rep.RequiredArea)
	}

	line := formatStatus(tag, color, msg, styled)
	if rep.Advisory != nil {
		line += "\n" + formatStatus("WARN", colorWarn, rep.Advisory.Message, styled)
	}
	return line
}

func checkLine(w io.Writer, material string, s conduit.SizeResult) string {
	tag, color := "OK", colorOK
	verdict := "complies"
	if !s.Compliant {
		tag, color, verdict = "FAIL", colorFail, "exceeds the fill factor"
	}
	msg := fmt.Sprintf("%s %s\" %s (fill %.1f%%, %.2f mm² available)",
		material, s.TradeSize, verdict, s.FillPercent, s.AvailableArea)
	return formatStatus(tag, color, msg, isTerminal(w))
}

func formatStatus(tag string, color lipgloss.Color, msg string, styled bool) string {
	if !styled {
		return fmt.Sprintf("[%s] %s", tag, msg)
	}
	badge := lipgloss.NewStyle().Foreground(color).Bold(true).Render(tag)
	return badge + " " + msg
}

func heading(w io.Writer, s string) string {
	if !isTerminal(w) {
		return s
	}
	return lipgloss.NewStyle().Bold(true).Underline(true).Render(s)
}

func dim(w io.Writer, s string) string {
	if !isTerminal(w) {
		return s
	}
	return lipgloss.NewStyle().Foreground(colorDim).Render(s)
}
