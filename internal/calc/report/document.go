// Package report renders conduit calculation reports as text, JSON, PDF and
// XLSX documents. Renderers read only the Report value and never call back
// into the selector.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"Conduit/internal/calc/conduit"

	"github.com/oklog/ulid/v2"
)

const DefaultTitle = "Conduit Fill Calculation"

// Meta is the caller supplied header of an exported document.
type Meta struct {
	Project string `json:"project" yaml:"project"`
	Author  string `json:"author" yaml:"author"`
	Title   string `json:"title" yaml:"title"`
}

// Document is a rendered-ready Report plus its export header. ID is a ULID
// whose timestamp matches Generated.
type Document struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Project   string         `json:"project,omitempty"`
	Author    string         `json:"author,omitempty"`
	Generated time.Time      `json:"generated"`
	Report    conduit.Report `json:"report"`
	Guidance  []string       `json:"guidance,omitempty"`
}

func NewDocument(rep conduit.Report, meta Meta, now time.Time) Document {
	title := strings.TrimSpace(meta.Title)
	if title == "" {
		title = DefaultTitle
	}
	doc := Document{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Title:     title,
		Project:   strings.TrimSpace(meta.Project),
		Author:    strings.TrimSpace(meta.Author),
		Generated: now,
		Report:    rep,
	}
	if rep.NoneCompliant() {
		doc.Guidance = Guidance()
	}
	return doc
}

// Guidance lists the corrective actions offered when no trade size complies.
func Guidance() []string {
	return []string{
		"Use a larger capacity conduit or a different material",
		"Reduce the number of conductors",
		"Change to an insulation type with smaller area",
		"Distribute the conductors across multiple conduits",
	}
}

// TechnicalSpec is the installation line for the recommended size, or ""
// when none complies.
func TechnicalSpec(rep conduit.Report) string {
	if rep.Recommendation == nil {
		return ""
	}
	return fmt.Sprintf("Install %s conduit of %s\" per %s - %s.",
		rep.Material, rep.Recommendation.TradeSize, rep.Fill.Citation, rep.Standard)
}

type Format string

const (
	FormatText Format = "txt"
	FormatJSON Format = "json"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts a format name or file extension, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "txt", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "pdf":
		return FormatPDF, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}

// Filename is the suggested download name for doc in this format.
func (f Format) Filename(doc Document) string {
	return fmt.Sprintf("conduit-%s-%s.%s", strings.ToLower(string(doc.Report.Material)), strings.ToLower(doc.ID), f)
}

// Write renders doc in format f.
func Write(w io.Writer, f Format, doc Document) error {
	switch f {
	case FormatText:
		return WriteText(w, doc)
	case FormatJSON:
		return WriteJSON(w, doc)
	case FormatPDF:
		return WritePDF(w, doc)
	case FormatXLSX:
		return WriteXLSX(w, doc)
	}
	return fmt.Errorf("unknown report format %q", string(f))
}
