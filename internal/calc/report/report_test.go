package report

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"Conduit/internal/calc/conductor"
	"Conduit/internal/calc/conduit"
	"Conduit/internal/calc/tables"

	"github.com/gorilla/mux"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func selectReport(t *testing.T, material tables.Material, specs ...[3]string) conduit.Report {
	t.Helper()
	tb := tables.Default()
	var entries []conductor.Entry
	for _, s := range specs {
		e, err := conductor.Create(tb, s[0], s[1], s[2])
		require.NoError(t, err)
		entries = append(entries, e)
	}
	rep, err := conduit.NewSelector(tb).Select(entries, material)
	require.NoError(t, err)
	return rep
}

func TestNewDocument(t *testing.T) {
	rep := selectReport(t, tables.MaterialEMT, [3]string{"THW", "12", "3"})
	doc := NewDocument(rep, Meta{Project: " Tower B ", Author: "R. Ortiz"}, fixedNow)

	assert.Equal(t, DefaultTitle, doc.Title)
	assert.Equal(t, "Tower B", doc.Project)
	assert.Nil(t, doc.Guidance)

	id, err := ulid.ParseStrict(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(fixedNow), id.Time())

	other := NewDocument(rep, Meta{}, fixedNow)
	assert.NotEqual(t, doc.ID, other.ID)
}

func TestWriteTextCompliant(t *testing.T) {
	rep := selectReport(t, tables.MaterialEMT, [3]string{"THW", "12", "3"})
	doc := NewDocument(rep, Meta{Project: "Tower B"}, fixedNow)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, doc))
	out := buf.String()

	assert.Contains(t, out, "CONDUIT FILL CALCULATION: EMT")
	assert.Contains(t, out, "Project: Tower B")
	assert.Contains(t, out, "Date: 2026-03-14 09:30")
	assert.Contains(t, out, "1. THW #12 x 3 conductor(s)")
	assert.Contains(t, out, "Area: 3.31 mm² x 3 = 9.93 mm²")
	assert.Contains(t, out, "- Required area: 9.93 mm²")
	assert.Contains(t, out, "- Fill factor: 53%")
	assert.Contains(t, out, "= (3.31 x 3) = 9.93 mm²")
	assert.Contains(t, out, "Reference: Article 310-15(b)(2)(A), Table 1 - NOM-001-SEDE-2012")
	assert.Contains(t, out, "Calculation: 196 x 0.53 = 103.88 mm²")
	assert.Contains(t, out, "Fill: 5.1%")
	assert.Contains(t, out, "RECOMMENDED CONDUIT: EMT 1/2\"")
	assert.Contains(t, out, "VALID ALTERNATIVES")
	assert.Contains(t, out, "TECHNICAL SPECIFICATION\nInstall EMT conduit of 1/2\" per Article 310-15(b)(2)(A), Table 1 - NOM-001-SEDE-2012.")
	assert.NotContains(t, out, "NONE COMPLIANT")
	assert.NotContains(t, out, "WARNING")
}

func TestWriteTextNoneCompliant(t *testing.T) {
	rep := selectReport(t, tables.MaterialEMT, [3]string{"THW", "4/0", "10"})
	doc := NewDocument(rep, Meta{}, fixedNow)
	require.NotEmpty(t, doc.Guidance)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, doc))
	out := buf.String()

	assert.Contains(t, out, "NONE COMPLIANT")
	assert.Contains(t, out, "WARNING")
	assert.Contains(t, out, "Article 310-15(b)(2)(a)")
	for _, g := range Guidance() {
		assert.Contains(t, out, g)
	}
	assert.Equal(t, 6, strings.Count(out, "NOT COMPLIANT (exceeds fill factor)"))
	assert.NotContains(t, out, "RECOMMENDED CONDUIT")
	assert.NotContains(t, out, "TECHNICAL SPECIFICATION")
}

func TestWriteTextMultipleEntriesFormula(t *testing.T) {
	rep := selectReport(t, tables.MaterialPVC, [3]string{"THHN", "10", "2"}, [3]string{"XHHW", "8", "1"})

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, NewDocument(rep, Meta{}, fixedNow)))

	assert.Contains(t, buf.String(), "= (4.18 x 2) + (8.09 x 1) = 16.45 mm²")
}

func TestWriteJSON(t *testing.T) {
	rep := selectReport(t, tables.MaterialIMC, [3]string{"THHN", "14", "2"})
	doc := NewDocument(rep, Meta{Title: "Panel A"}, fixedNow)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, doc))

	var got Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, "Panel A", got.Title)
	assert.Equal(t, 0.31, got.Report.FillFactor)
	require.NotNil(t, got.Report.Recommendation)
	assert.Equal(t, "1/2", got.Report.Recommendation.TradeSize)
}

func TestWritePDF(t *testing.T) {
	for _, specs := range [][3]string{{"THW", "12", "3"}, {"THW", "4/0", "10"}} {
		rep := selectReport(t, tables.MaterialEMT, specs)

		var buf bytes.Buffer
		require.NoError(t, WritePDF(&buf, NewDocument(rep, Meta{Author: "Ñoño"}, fixedNow)))
		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	}
}

func TestWriteXLSX(t *testing.T) {
	rep := selectReport(t, tables.MaterialRMC, [3]string{"XHHW", "6", "4"})
	doc := NewDocument(rep, Meta{Project: "Line 3"}, fixedNow)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, doc))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetConductors, SheetSizes}, f.GetSheetList())

	v, err := f.GetCellValue(SheetSummary, "B2")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, v)

	v, err = f.GetCellValue(SheetSummary, "B12")
	require.NoError(t, err)
	assert.Equal(t, rep.Recommendation.TradeSize, v)

	rows, err := f.GetRows(SheetSizes)
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, "1/2", rows[1][0])
	assert.Equal(t, "234", rows[1][1])

	rows, err = f.GetRows(SheetConductors)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "XHHW", "6", "4"}, rows[1][:4])
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{"txt": FormatText, "TEXT": FormatText, ".pdf": FormatPDF, "json": FormatJSON, "Excel": FormatXLSX}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("docx")
	assert.Error(t, err)
}

func TestHandlerGenerate(t *testing.T) {
	h := &Handler{Selector: conduit.NewSelector(tables.Default()), Now: func() time.Time { return fixedNow }}
	body := `{"material":"EMT","project":"Tower B","conductors":[{"insulation":"THW","gauge":"12","quantity":3}]}`

	for _, format := range []Format{FormatText, FormatJSON, FormatPDF, FormatXLSX} {
		t.Run(string(format), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/user/tools/conduit/report/"+string(format), strings.NewReader(body))
			req = mux.SetURLVars(req, map[string]string{"format": string(format)})
			w := httptest.NewRecorder()

			h.Generate(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, format.ContentType(), w.Header().Get("Content-Type"))
			assert.Contains(t, w.Header().Get("Content-Disposition"), "."+string(format))
			assert.NotZero(t, w.Body.Len())
		})
	}
}

func TestHandlerGenerateErrors(t *testing.T) {
	h := &Handler{Selector: conduit.NewSelector(tables.Default())}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req = mux.SetURLVars(req, map[string]string{"format": "docx"})
	w := httptest.NewRecorder()
	h.Generate(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"material":"EMT","conductors":[]}`))
	req = mux.SetURLVars(req, map[string]string{"format": "txt"})
	w = httptest.NewRecorder()
	h.Generate(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
