// Package fill encodes the conduit fill-factor table of NOM-001-SEDE-2012
// Article 310-15(b)(2)(A), Table 1, and the grouping advisory of 310-15(b)(2)(a).
package fill

import "fmt"

const (
	TableCitation    = "Article 310-15(b)(2)(A), Table 1"
	AdvisoryCitation = "Article 310-15(b)(2)(a)"

	// AdvisoryThreshold is the largest conductor count that needs no
	// supplementary grouping derating.
	AdvisoryThreshold = 9
)

// Tier is one row of the fill-factor table.
type Tier struct {
	Conductors  string  `json:"conductors"`
	Factor      float64 `json:"factor"`
	Citation    string  `json:"citation"`
	Description string  `json:"description"`
}

// Advisory is the note attached when more than AdvisoryThreshold conductors
// share a conduit.
type Advisory struct {
	Conductors int    `json:"conductors"`
	Citation   string `json:"citation"`
	Message    string `json:"message"`
}

var (
	single = Tier{Conductors: "1", Factor: 1.00, Citation: TableCitation, Description: "One conductor: 100% of conduit area"}
	pair   = Tier{Conductors: "2", Factor: 0.31, Citation: TableCitation, Description: "Two conductors: 31% of conduit area"}
	many   = Tier{Conductors: "3+", Factor: 0.53, Citation: TableCitation, Description: "Three or more conductors: 53% of conduit area"}
)

// Tiers lists the fill-factor table in ascending conductor count.
func Tiers() []Tier {
	return []Tier{single, pair, many}
}

// TierFor returns the table row for a total conductor count. count must be
// positive; callers reject empty conductor sets before getting here.
func TierFor(count int) Tier {
	switch count {
	case 1:
		return single
	case 2:
		return pair
	default:
		return many
	}
}

// Factor is the fraction of conduit area conductors may occupy.
func Factor(count int) float64 {
	return TierFor(count).Factor
}

func RequiresAdvisory(count int) bool {
	return count > AdvisoryThreshold
}

// AdvisoryFor returns nil when no grouping derating applies.
func AdvisoryFor(count int) *Advisory {
	if !RequiresAdvisory(count) {
		return nil
	}
	return &Advisory{
		Conductors: count,
		Citation:   AdvisoryCitation,
		Message:    fmt.Sprintf("%d conductors exceed %d: apply supplementary grouping derating factors", count, AdvisoryThreshold),
	}
}
