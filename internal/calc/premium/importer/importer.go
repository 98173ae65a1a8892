// Package importer reads conductor lists from XLSX workbooks. Each row holds
// insulation, gauge and quantity in its first three columns; a leading
// header row is skipped.
package importer

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"Conduit/internal/calc/conductor"
	"Conduit/internal/calc/tables"

	"github.com/xuri/excelize/v2"
)

var ErrEmptySheet = errors.New("sheet has no conductor rows")

// RowError is a rejected row. Row is the 1-based spreadsheet row number.
type RowError struct {
	Row   int    `json:"row"`
	Field string `json:"field,omitempty"`
	Error string `json:"error"`
}

type Sheet struct {
	Name    string            `json:"sheet"`
	Entries []conductor.Entry `json:"-"`
	Rows    int               `json:"rows"`
	Errors  []RowError        `json:"errors,omitempty"`
}

// Read parses the first sheet of an XLSX workbook. Invalid rows are
// collected in Errors and do not stop the read.
func Read(r io.Reader, t *tables.Tables) (Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Sheet{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	name := f.GetSheetName(0)
	rows, err := f.GetRows(name)
	if err != nil {
		return Sheet{}, fmt.Errorf("read sheet %q: %w", name, err)
	}

	out := Sheet{Name: name}
	for i, row := range rows {
		if blank(row) {
			continue
		}
		if i == 0 && isHeader(row) {
			continue
		}
		out.Rows++
		e, err := parseRow(t, row)
		if err != nil {
			re := RowError{Row: i + 1, Error: err.Error()}
			var vErr *conductor.ValidationError
			if errors.As(err, &vErr) {
				re.Field = vErr.Field
			}
			out.Errors = append(out.Errors, re)
			continue
		}
		out.Entries = append(out.Entries, e)
	}
	if out.Rows == 0 {
		return out, ErrEmptySheet
	}
	return out, nil
}

func parseRow(t *tables.Tables, row []string) (conductor.Entry, error) {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return conductor.Create(t, strings.ToUpper(strings.TrimSpace(cell(0))), cell(1), cell(2))
}

func isHeader(row []string) bool {
	return strings.EqualFold(strings.TrimSpace(row[0]), "insulation")
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
