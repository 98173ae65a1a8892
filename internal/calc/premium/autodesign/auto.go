// Package autodesign splits a conductor set over parallel conduits when one
// conduit of the chosen material cannot hold it.
package autodesign

import (
	"errors"
	"fmt"
	"sort"

	"Conduit/internal/calc/conductor"
	"Conduit/internal/calc/conduit"
	"Conduit/internal/calc/tables"

	"github.com/rs/zerolog/log"
)

// MaxConductors bounds the number of individual conductors in one plan.
const MaxConductors = 500

// ErrOversize is returned when a single conductor does not fit the largest
// trade size even alone.
var ErrOversize = errors.New("conductor larger than the largest trade size")

var ErrTooMany = errors.New("too many conductors")

// Run is one conduit of a plan with the conductors routed through it.
type Run struct {
	Conductors []conductor.Entry `json:"conductors"`
	Report     conduit.Report    `json:"report"`
}

type Plan struct {
	Material       tables.Material `json:"material"`
	ConductorCount int             `json:"conductor_count"`
	Runs           []Run           `json:"runs"`
	Notes          string          `json:"notes"`
}

// Split spreads the conductors over parallel conduits of one material, trying
// one conduit, then two, and so on until every conduit has a compliant trade
// size. Placement is a greedy heuristic (largest first into the least filled
// conduit), so the conduit count is small but not guaranteed minimal. Each
// conduit is evaluated with the fill tier of its own count.
func Split(sel *conduit.Selector, entries []conductor.Entry, material tables.Material) (Plan, error) {
	if err := checkCount(entries); err != nil {
		return Plan{}, err
	}
	units := expand(entries)
	if len(units) == 0 {
		return Plan{}, conduit.ErrEmptyInput
	}

	t := sel.Tables()
	sizes, err := t.TradeSizesFor(material)
	if err != nil {
		return Plan{}, err
	}
	largest, err := t.CapacityOf(material, sizes[len(sizes)-1])
	if err != nil {
		return Plan{}, err
	}
	for _, u := range units {
		if u.UnitArea > largest {
			return Plan{}, fmt.Errorf("%s #%s: %w", u.Insulation, u.Gauge, ErrOversize)
		}
	}

	for n := 1; n <= len(units); n++ {
		runs, ok, err := try(sel, units, material, n)
		if err != nil {
			return Plan{}, err
		}
		if !ok {
			continue
		}
		log.Debug().Str("material", string(material)).Int("conductors", len(units)).Int("conduits", n).Msg("auto design")
		return Plan{
			Material:       material,
			ConductorCount: len(units),
			Runs:           runs,
			Notes:          notes(n, material),
		}, nil
	}
	// One conductor per conduit always fits once oversize is ruled out.
	return Plan{}, fmt.Errorf("no split found for %d conductors", len(units))
}

func try(sel *conduit.Selector, units []conductor.Entry, material tables.Material, n int) ([]Run, bool, error) {
	groups := make([][]conductor.Entry, n)
	load := make([]float64, n)
	for _, u := range units {
		least := 0
		for i := 1; i < n; i++ {
			if load[i] < load[least] {
				least = i
			}
		}
		groups[least] = append(groups[least], u)
		load[least] += u.UnitArea
	}

	runs := make([]Run, 0, n)
	for _, g := range groups {
		merged, err := merge(sel.Tables(), g)
		if err != nil {
			return nil, false, err
		}
		rep, err := sel.Select(merged, material)
		if err != nil {
			return nil, false, err
		}
		if rep.NoneCompliant() {
			return nil, false, nil
		}
		runs = append(runs, Run{Conductors: merged, Report: rep})
	}
	return runs, true, nil
}

// checkCount rejects oversized sets before any per-conductor allocation.
// The running total never exceeds MaxConductors, so it cannot overflow.
func checkCount(entries []conductor.Entry) error {
	n := 0
	for _, e := range entries {
		if e.Quantity > MaxConductors-n {
			return fmt.Errorf("%w: more than the limit of %d", ErrTooMany, MaxConductors)
		}
		n += e.Quantity
	}
	return nil
}

// expand turns entries into single conductors, largest area first.
func expand(entries []conductor.Entry) []conductor.Entry {
	var units []conductor.Entry
	for _, e := range entries {
		for i := 0; i < e.Quantity; i++ {
			u := e
			u.Quantity = 1
			u.TotalArea = u.UnitArea
			units = append(units, u)
		}
	}
	sort.SliceStable(units, func(i, j int) bool { return units[i].UnitArea > units[j].UnitArea })
	return units
}

// merge groups identical conductors back into entries, in first-seen order.
func merge(t *tables.Tables, units []conductor.Entry) ([]conductor.Entry, error) {
	type key struct {
		ins   tables.Insulation
		gauge string
	}
	var order []key
	counts := map[key]int{}
	for _, u := range units {
		k := key{u.Insulation, u.Gauge}
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}
	out := make([]conductor.Entry, 0, len(order))
	for _, k := range order {
		e, err := conductor.New(t, k.ins, k.gauge, counts[k])
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func notes(n int, material tables.Material) string {
	if n == 1 {
		return fmt.Sprintf("A single %s conduit holds every conductor.", material)
	}
	return fmt.Sprintf("Conductors split over %d parallel %s conduits.", n, material)
}
