package chem

import (
	"fmt"
	"math"
)

// FormulaFilter rejects formulas that are chemically implausible
type FormulaFilter interface {
	IsValid(f MolecularFormula) bool
}

// ValenceFilter accepts formulas whose RDBE is at least MinRDBE
type ValenceFilter struct {
	MinRDBE float64
}

// DefaultValenceFilter allows radicals but no negative ring/double bond count
var DefaultValenceFilter = ValenceFilter{MinRDBE: -0.5}

// IsValid implements FormulaFilter
func (v ValenceFilter) IsValid(f MolecularFormula) bool {
	return f.RDBE() >= v.MinRDBE
}

// FormulaConstraints bound the search space of the decomposer: an alphabet,
// an upper bound per element and a list of filters. Elements without an
// explicit bound are unbounded.
type FormulaConstraints struct {
	alphabet ChemicalAlphabet
	upper    map[string]int
	filters  []FormulaFilter
}

// NewConstraints creates constraints over the alphabet with the valence
// filter enabled. upper may be nil.
func NewConstraints(alphabet ChemicalAlphabet, upper map[string]int) (FormulaConstraints, error) {
	bounds := make(map[string]int, len(upper))
	for sym, n := range upper {
		if !alphabet.Contains(sym) {
			return FormulaConstraints{}, fmt.Errorf("%w: %s not in alphabet %s", ErrUnknownElement, sym, alphabet)
		}
		if n < 0 {
			return FormulaConstraints{}, fmt.Errorf("chem: negative upper bound for %s", sym)
		}
		bounds[sym] = n
	}
	return FormulaConstraints{
		alphabet: alphabet,
		upper:    bounds,
		filters:  []FormulaFilter{DefaultValenceFilter},
	}, nil
}

// WithFilters returns a copy of the constraints using the given filters
// instead of the current ones
func (c FormulaConstraints) WithFilters(filters ...FormulaFilter) FormulaConstraints {
	c.filters = append([]FormulaFilter(nil), filters...)
	return c
}

// Alphabet returns the allowed elements
func (c FormulaConstraints) Alphabet() ChemicalAlphabet {
	return c.alphabet
}

// UpperBound returns the maximal count of an element. Elements outside the
// alphabet have bound 0, unbounded elements math.MaxInt.
func (c FormulaConstraints) UpperBound(symbol string) int {
	if !c.alphabet.Contains(symbol) {
		return 0
	}
	if n, ok := c.upper[symbol]; ok {
		return n
	}
	return math.MaxInt
}

// UpperBounds returns a copy of the explicit bounds
func (c FormulaConstraints) UpperBounds() map[string]int {
	m := make(map[string]int, len(c.upper))
	for k, v := range c.upper {
		m[k] = v
	}
	return m
}

// Filters returns the formula filters
func (c FormulaConstraints) Filters() []FormulaFilter {
	return c.filters
}

// IsSatisfied reports whether f only uses alphabet elements within their
// bounds and passes all filters
func (c FormulaConstraints) IsSatisfied(f MolecularFormula) bool {
	for _, sym := range f.Symbols() {
		n := f.Count(sym)
		if n < 0 || n > c.UpperBound(sym) {
			return false
		}
	}
	return c.passesFilters(f)
}

func (c FormulaConstraints) passesFilters(f MolecularFormula) bool {
	for _, flt := range c.filters {
		if !flt.IsValid(f) {
			return false
		}
	}
	return true
}
