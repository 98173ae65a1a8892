// Package conductor validates conductor line items against the reference
// tables. Entries built here are trusted by the rest of the engine.
package conductor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"Conduit/internal/calc/tables"
)

// ValidationError names the input field that was rejected.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Reason)
}

// MaxQuantity bounds the quantity of one entry. Entries are typed by hand,
// and the bound keeps conductor counts far from int overflow.
const MaxQuantity = 10000

// Entry is one conductor line item: a quantity of identical conductors.
// UnitArea is taken from the tables when the entry is created.
type Entry struct {
	Insulation tables.Insulation `json:"insulation"`
	Gauge      string            `json:"gauge"`
	Quantity   int               `json:"quantity"`
	UnitArea   float64           `json:"unit_area_mm2"`
	TotalArea  float64           `json:"total_area_mm2"`
}

// Input is the raw form of an entry as it arrives from a client.
type Input struct {
	Insulation string      `json:"insulation" yaml:"insulation"`
	Gauge      string      `json:"gauge" yaml:"gauge"`
	Quantity   json.Number `json:"quantity" yaml:"quantity"`
}

// Create validates a conductor specification and looks up its area.
// quantity must be an integer of at least 1.
func Create(t *tables.Tables, insulation, gauge, quantity string) (Entry, error) {
	insulation = strings.TrimSpace(insulation)
	gauge = strings.TrimSpace(gauge)
	quantity = strings.TrimSpace(quantity)

	if insulation == "" {
		return Entry{}, &ValidationError{Field: "insulation", Reason: "is required"}
	}
	if gauge == "" {
		return Entry{}, &ValidationError{Field: "gauge", Reason: "is required"}
	}
	ins, err := t.ParseInsulation(insulation)
	if err != nil {
		return Entry{}, &ValidationError{Field: "insulation", Value: insulation, Reason: "unknown insulation type"}
	}
	if quantity == "" {
		return Entry{}, &ValidationError{Field: "quantity", Reason: "is required"}
	}
	qty, err := strconv.Atoi(quantity)
	if err != nil {
		return Entry{}, &ValidationError{Field: "quantity", Value: quantity, Reason: "must be an integer"}
	}
	return New(t, ins, gauge, qty)
}

// New builds an entry from already typed values.
func New(t *tables.Tables, ins tables.Insulation, gauge string, quantity int) (Entry, error) {
	if quantity < 1 {
		return Entry{}, &ValidationError{Field: "quantity", Value: strconv.Itoa(quantity), Reason: "must be at least 1"}
	}
	if quantity > MaxQuantity {
		return Entry{}, &ValidationError{Field: "quantity", Value: strconv.Itoa(quantity), Reason: fmt.Sprintf("must be at most %d", MaxQuantity)}
	}
	gauges, err := t.GaugesFor(ins)
	if err != nil {
		return Entry{}, &ValidationError{Field: "insulation", Value: string(ins), Reason: "unknown insulation type"}
	}
	if !contains(gauges, gauge) {
		return Entry{}, &ValidationError{Field: "gauge", Value: gauge, Reason: fmt.Sprintf("not available for %s", ins)}
	}
	unit, err := t.AreaOf(ins, gauge)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Insulation: ins,
		Gauge:      gauge,
		Quantity:   quantity,
		UnitArea:   unit,
		TotalArea:  unit * float64(quantity),
	}, nil
}

// ParseAll validates a batch of inputs, stopping at the first bad one.
// The error is annotated with the position of the failing input.
func ParseAll(t *tables.Tables, inputs []Input) ([]Entry, error) {
	entries := make([]Entry, 0, len(inputs))
	for i, in := range inputs {
		e, err := Create(t, in.Insulation, in.Gauge, in.Quantity.String())
		if err != nil {
			return nil, fmt.Errorf("conductor %d: %w", i+1, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
