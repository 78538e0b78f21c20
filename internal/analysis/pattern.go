package analysis

import (
	"math"
	"sort"

	"github.com/524D/mzisotope/internal/chem"
	"github.com/524D/mzisotope/internal/ms"
)

// Scored pairs a value with its score. Higher scores are better.
type Scored[T any] struct {
	Value T       `json:"value"`
	Score float64 `json:"score"`
}

// SortScored orders s by descending score. Equal scores keep their order.
func SortScored[T any](s []Scored[T]) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Score > s[j].Score })
}

// IsotopePattern is a mass ordered isotope cluster, with the ranked
// formula candidates once it has been scored
type IsotopePattern struct {
	Pattern    ms.Spectrum                      `json:"pattern"`
	Candidates []Scored[chem.MolecularFormula] `json:"candidates,omitempty"`
	scored     bool
}

// NewPattern wraps an extracted, not yet scored pattern
func NewPattern(s ms.Spectrum) IsotopePattern {
	return IsotopePattern{Pattern: s}
}

// NewScoredPattern wraps a pattern with its ranked candidates
func NewScoredPattern(s ms.Spectrum, candidates []Scored[chem.MolecularFormula]) IsotopePattern {
	return IsotopePattern{Pattern: s, Candidates: candidates, scored: true}
}

// IsScored reports whether the pattern carries a candidate list. The list
// may be empty if no formula matched.
func (p IsotopePattern) IsScored() bool {
	return p.scored
}

// MonoisotopicMass is the m/z of the first peak
func (p IsotopePattern) MonoisotopicMass() float64 {
	if len(p.Pattern) == 0 {
		return math.NaN()
	}
	return p.Pattern[0].Mz
}

// Best returns the highest scoring candidate
func (p IsotopePattern) Best() (Scored[chem.MolecularFormula], bool) {
	if len(p.Candidates) == 0 {
		return Scored[chem.MolecularFormula]{}, false
	}
	return p.Candidates[0], true
}
