package autodesign

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"Conduit/internal/calc/conductor"
	"Conduit/internal/calc/conduit"
	"Conduit/internal/calc/tables"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func create(t *testing.T, tb *tables.Tables, ins, gauge, qty string) conductor.Entry {
	t.Helper()
	e, err := conductor.Create(tb, ins, gauge, qty)
	require.NoError(t, err)
	return e
}

func TestSplitSingleConduit(t *testing.T) {
	tb := tables.Default()
	entries := []conductor.Entry{create(t, tb, "THW", "4/0", "2")}

	plan, err := Split(conduit.NewSelector(tb), entries, tables.MaterialEMT)
	require.NoError(t, err)

	require.Len(t, plan.Runs, 1)
	assert.Equal(t, 2, plan.ConductorCount)
	assert.Equal(t, entries, plan.Runs[0].Conductors)
	assert.Equal(t, "1 1/4", plan.Runs[0].Report.Recommendation.TradeSize)
}

func TestSplitParallel(t *testing.T) {
	tb := tables.Default()
	entries := []conductor.Entry{create(t, tb, "THW", "4/0", "10")}

	plan, err := Split(conduit.NewSelector(tb), entries, tables.MaterialEMT)
	require.NoError(t, err)

	require.Len(t, plan.Runs, 2)
	total := 0
	for _, run := range plan.Runs {
		require.NotNil(t, run.Report.Recommendation)
		assert.Equal(t, "1 1/2", run.Report.Recommendation.TradeSize)
		assert.Nil(t, run.Report.Advisory)
		total += run.Report.ConductorCount
	}
	assert.Equal(t, 10, total)
	assert.Contains(t, plan.Notes, "2 parallel EMT conduits")
}

func TestSplitMixedKeepsEveryConductor(t *testing.T) {
	tb := tables.Default()
	entries := []conductor.Entry{
		create(t, tb, "THW", "4/0", "8"),
		create(t, tb, "THHN", "12", "9"),
		create(t, tb, "XHHW", "2", "4"),
	}

	plan, err := Split(conduit.NewSelector(tb), entries, tables.MaterialPVC)
	require.NoError(t, err)
	require.Greater(t, len(plan.Runs), 1)

	counts := map[string]int{}
	for _, run := range plan.Runs {
		assert.False(t, run.Report.NoneCompliant())
		for _, e := range run.Conductors {
			counts[string(e.Insulation)+" "+e.Gauge] += e.Quantity
		}
	}
	assert.Equal(t, map[string]int{"THW 4/0": 8, "THHN 12": 9, "XHHW 2": 4}, counts)
}

func TestSplitErrors(t *testing.T) {
	tb := tables.Default()
	sel := conduit.NewSelector(tb)

	_, err := Split(sel, nil, tables.MaterialEMT)
	assert.ErrorIs(t, err, conduit.ErrEmptyInput)

	_, err = Split(sel, []conductor.Entry{create(t, tb, "THW", "12", "501")}, tables.MaterialEMT)
	assert.ErrorIs(t, err, ErrTooMany)

	_, err = Split(sel, []conductor.Entry{create(t, tb, "THW", "12", "300"), create(t, tb, "THHN", "10", "201")}, tables.MaterialEMT)
	assert.ErrorIs(t, err, ErrTooMany)

	small, err := tables.Load([]byte(`standard: SMALL
version: 0.1.0
conductors: [{insulation: A, gauges: [{gauge: "big", area_mm2: 250}]}]
conduits: [{material: M, sizes: [{trade_size: "1", area_mm2: 100}, {trade_size: "2", area_mm2: 200}]}]`))
	require.NoError(t, err)
	_, err = Split(conduit.NewSelector(small), []conductor.Entry{create(t, small, "A", "big", "1")}, "M")
	assert.ErrorIs(t, err, ErrOversize)
}

func TestSplitRejectsHugeQuantityUpFront(t *testing.T) {
	sel := conduit.NewSelector(tables.Default())
	huge := conductor.Entry{Insulation: tables.InsulationTHW, Gauge: "12", Quantity: 1 << 62, UnitArea: 3.31}

	allocs := testing.AllocsPerRun(1, func() {
		_, err := Split(sel, []conductor.Entry{huge, huge, huge}, tables.MaterialEMT)
		assert.ErrorIs(t, err, ErrTooMany)
	})
	assert.Less(t, allocs, float64(MaxConductors))
}

func TestHandler(t *testing.T) {
	h := &Handler{Selector: conduit.NewSelector(tables.Default())}

	req := httptest.NewRequest(http.MethodPost, "/api/user/tools-premium/conduit/autodesign",
		strings.NewReader(`{"material":"EMT","conductors":[{"insulation":"THW","gauge":"4/0","quantity":10}]}`))
	w := httptest.NewRecorder()
	h.Conduit(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var plan Plan
	require.NoError(t, json.NewDecoder(w.Body).Decode(&plan))
	assert.Len(t, plan.Runs, 2)

	req = httptest.NewRequest(http.MethodPost, "/api/user/tools-premium/conduit/autodesign",
		strings.NewReader(`{"material":"EMT","conductors":[{"insulation":"THW","gauge":"12","quantity":900}]}`))
	w = httptest.NewRecorder()
	h.Conduit(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
