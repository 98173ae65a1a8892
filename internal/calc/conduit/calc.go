// Package conduit selects the smallest trade size of a conduit material that
// can hold a set of conductors under the fill-factor table.
package conduit

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"Conduit/internal/calc/conductor"
	"Conduit/internal/calc/fill"
	"Conduit/internal/calc/tables"

	"github.com/rs/zerolog/log"
)

// ErrEmptyInput is returned when a calculation is requested without conductors.
var ErrEmptyInput = errors.New("at least one conductor is required")

// SizeResult is the evaluation of one trade size.
type SizeResult struct {
	TradeSize     string  `json:"trade_size"`
	ConduitArea   float64 `json:"conduit_area_mm2"`
	AvailableArea float64 `json:"available_area_mm2"`
	FillPercent   float64 `json:"fill_percent"`
	Compliant     bool    `json:"compliant"`
}

// Report is the complete analysis of one conductor set in one material.
// Recommendation is nil when no trade size complies.
type Report struct {
	Standard       string            `json:"standard"`
	Material       tables.Material   `json:"material"`
	Conductors     []conductor.Entry `json:"conductors"`
	ConductorCount int               `json:"conductor_count"`
	RequiredArea   float64           `json:"required_area_mm2"`
	FillFactor     float64           `json:"fill_factor"`
	Fill           fill.Tier         `json:"fill"`
	Sizes          []SizeResult      `json:"sizes"`
	Recommendation *SizeResult       `json:"recommendation"`
	Advisory       *fill.Advisory    `json:"advisory,omitempty"`
}

// NoneCompliant reports whether every trade size failed.
func (r Report) NoneCompliant() bool {
	return r.Recommendation == nil
}

// Alternatives lists the compliant sizes larger than the recommendation.
func (r Report) Alternatives() []SizeResult {
	var out []SizeResult
	found := false
	for _, s := range r.Sizes {
		if !s.Compliant {
			continue
		}
		if !found {
			found = true
			continue
		}
		out = append(out, s)
	}
	return out
}

type Selector struct {
	tables *tables.Tables
}

func NewSelector(t *tables.Tables) *Selector {
	return &Selector{tables: t}
}

func (s *Selector) Tables() *tables.Tables {
	return s.tables
}

// Select evaluates every trade size of material, smallest first, and
// recommends the first one that complies. Entries are assumed valid.
func (s *Selector) Select(entries []conductor.Entry, material tables.Material) (Report, error) {
	count, required, err := totals(entries)
	if err != nil {
		return Report{}, err
	}
	if count == 0 {
		return Report{}, ErrEmptyInput
	}

	sizes, err := s.tables.TradeSizesFor(material)
	if err != nil {
		return Report{}, err
	}

	tier := fill.TierFor(count)
	rep := Report{
		Standard:       s.tables.Standard(),
		Material:       material,
		Conductors:     append([]conductor.Entry(nil), entries...),
		ConductorCount: count,
		RequiredArea:   required,
		FillFactor:     tier.Factor,
		Fill:           tier,
		Sizes:          make([]SizeResult, 0, len(sizes)),
		Advisory:       fill.AdvisoryFor(count),
	}

	for _, size := range sizes {
		capacity, err := s.tables.CapacityOf(material, size)
		if err != nil {
			return Report{}, err
		}
		res := evaluate(size, capacity, required, tier.Factor)
		rep.Sizes = append(rep.Sizes, res)
		if res.Compliant && rep.Recommendation == nil {
			rec := res
			rep.Recommendation = &rec
		}
	}

	ev := log.Debug().
		Str("material", string(material)).
		Int("conductors", count).
		Float64("required_mm2", required).
		Float64("fill_factor", tier.Factor)
	if rep.Recommendation != nil {
		ev = ev.Str("trade_size", rep.Recommendation.TradeSize)
	}
	ev.Msg("conduit selection")

	return rep, nil
}

// Check evaluates a single caller-chosen trade size.
func (s *Selector) Check(entries []conductor.Entry, material tables.Material, size string) (SizeResult, error) {
	count, required, err := totals(entries)
	if err != nil {
		return SizeResult{}, err
	}
	if count == 0 {
		return SizeResult{}, ErrEmptyInput
	}
	capacity, err := s.tables.CapacityOf(material, size)
	if err != nil {
		return SizeResult{}, fmt.Errorf("check %s %s: %w", material, size, err)
	}
	return evaluate(size, capacity, required, fill.Factor(count)), nil
}

// totals sums quantities and areas in entry order. Quantities outside the
// range conductor.New accepts are rejected so the count cannot wrap.
func totals(entries []conductor.Entry) (count int, area float64, err error) {
	for i, e := range entries {
		if e.Quantity < 1 || e.Quantity > conductor.MaxQuantity || count > math.MaxInt-e.Quantity {
			return 0, 0, fmt.Errorf("conductor %d: %w", i+1, &conductor.ValidationError{
				Field:  "quantity",
				Value:  strconv.Itoa(e.Quantity),
				Reason: fmt.Sprintf("must be between 1 and %d", conductor.MaxQuantity),
			})
		}
		count += e.Quantity
		area += e.TotalArea
	}
	return count, area, nil
}

// evaluate compares unrounded areas; rounding is for display only.
func evaluate(size string, capacity, required, factor float64) SizeResult {
	available := capacity * factor
	return SizeResult{
		TradeSize:     size,
		ConduitArea:   capacity,
		AvailableArea: available,
		FillPercent:   required / capacity * 100,
		Compliant:     required <= available,
	}
}
