package registry

import (
	"cmp"
	"slices"
)

// Ranked is a candidate with its computed selection score.
type Ranked struct {
	Candidate
	Score    int
	Explicit bool
}

// Score returns the selection score of c: its explicit priority when one was
// declared, otherwise LowBound plus its ancestor depth.
func Score(c Candidate) (score int, explicit bool) {
	if p, ok := c.Unit.Priority(); ok {
		return p, true
	}
	return LowBound + c.Depth, false
}

// Select orders the candidates of contract from most to least preferred.
// Explicitly prioritized candidates always precede implicit ones; within each
// group higher scores come first and ties keep discovery order. A contract
// without candidates yields an empty slice.
func Select(cm CandidateMap, contract Contract) []Ranked {
	candidates := cm.entries[contract]
	ranked := make([]Ranked, 0, len(candidates))
	for _, c := range candidates {
		score, explicit := Score(c)
		ranked = append(ranked, Ranked{Candidate: c, Score: score, Explicit: explicit})
	}

	slices.SortStableFunc(ranked, func(a, b Ranked) int {
		if a.Explicit != b.Explicit {
			if a.Explicit {
				return -1
			}
			return 1
		}
		return cmp.Compare(b.Score, a.Score)
	})
	return ranked
}
