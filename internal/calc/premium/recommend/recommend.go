// Package recommend compares the conduit materials for one conductor set.
package recommend

import (
	"sort"

	"Conduit/internal/calc/conductor"
	"Conduit/internal/calc/conduit"
	"Conduit/internal/calc/tables"
)

// Option is one material's outcome. SizeIndex is the position of the
// recommended size in the material's trade-size order, -1 when none complies.
type Option struct {
	Material       tables.Material     `json:"material"`
	Recommendation *conduit.SizeResult `json:"recommendation"`
	SizeIndex      int                 `json:"size_index"`
}

type Result struct {
	ConductorCount int      `json:"conductor_count"`
	RequiredArea   float64  `json:"required_area_mm2"`
	FillFactor     float64  `json:"fill_factor"`
	Options        []Option `json:"options"`
	Best           *Option  `json:"best"`
}

// Materials evaluates entries in every material and ranks them: compliant
// materials first by smallest trade size, then by smaller conduit area.
// Materials with no compliant size keep table order at the end.
func Materials(sel *conduit.Selector, entries []conductor.Entry) (Result, error) {
	t := sel.Tables()
	var out Result
	for _, m := range t.Materials() {
		rep, err := sel.Select(entries, m)
		if err != nil {
			return Result{}, err
		}
		out.ConductorCount = rep.ConductorCount
		out.RequiredArea = rep.RequiredArea
		out.FillFactor = rep.FillFactor

		opt := Option{Material: m, Recommendation: rep.Recommendation, SizeIndex: -1}
		for i, s := range rep.Sizes {
			if s.Compliant {
				opt.SizeIndex = i
				break
			}
		}
		out.Options = append(out.Options, opt)
	}

	sort.SliceStable(out.Options, func(i, j int) bool {
		a, b := out.Options[i], out.Options[j]
		switch {
		case a.SizeIndex < 0 || b.SizeIndex < 0:
			return a.SizeIndex >= 0 && b.SizeIndex < 0
		case a.SizeIndex != b.SizeIndex:
			return a.SizeIndex < b.SizeIndex
		default:
			return a.Recommendation.ConduitArea < b.Recommendation.ConduitArea
		}
	})

	if len(out.Options) > 0 && out.Options[0].SizeIndex >= 0 {
		best := out.Options[0]
		out.Best = &best
	}
	return out, nil
}
