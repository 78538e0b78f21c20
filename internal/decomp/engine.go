// Package decomp enumerates the molecular formulas whose monoisotopic mass
// lies within a tolerance of a given mass.
package decomp

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/524D/mzisotope/internal/chem"
	"github.com/524D/mzisotope/internal/ms"
)

var (
	// ErrInvalidMass is returned for masses that are not positive and finite
	ErrInvalidMass = errors.New("decomp: invalid mass")
	// ErrAlphabetMismatch is returned when constraints use elements that
	// the engine was not built for
	ErrAlphabetMismatch = errors.New("decomp: constraints do not match engine alphabet")
)

// Engine decomposes masses over one chemical alphabet. It holds no mutable
// state and may be used by several goroutines.
type Engine struct {
	alphabet chem.ChemicalAlphabet
	// elements by descending mass; the last one is solved directly
	elements []*chem.Element
	masses   []float64
}

// NewEngine prepares an engine for the alphabet
func NewEngine(alphabet chem.ChemicalAlphabet) (*Engine, error) {
	if alphabet.Size() == 0 {
		return nil, fmt.Errorf("decomp: empty alphabet")
	}
	asc := alphabet.Elements()
	e := &Engine{
		alphabet: alphabet,
		elements: make([]*chem.Element, len(asc)),
		masses:   make([]float64, len(asc)),
	}
	for i, el := range asc {
		e.elements[len(asc)-1-i] = el
	}
	for i, el := range e.elements {
		e.masses[i] = el.Mass()
	}
	return e, nil
}

// Alphabet returns the alphabet of the engine
func (e *Engine) Alphabet() chem.ChemicalAlphabet {
	return e.alphabet
}

// Decompose returns all formulas over the engine alphabet with a mass
// within dev of mass that satisfy the constraints. Results are ordered by
// ascending absolute mass error.
func (e *Engine) Decompose(mass float64, dev ms.Deviation, c chem.FormulaConstraints) ([]chem.MolecularFormula, error) {
	if !(mass > 0) || math.IsInf(mass, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMass, mass)
	}
	for _, sym := range c.Alphabet().Symbols() {
		if !e.alphabet.Contains(sym) {
			return nil, fmt.Errorf("%w: %s", ErrAlphabetMismatch, sym)
		}
	}
	tol := dev.AbsoluteFor(mass)
	lo, hi := mass-tol, mass+tol

	n := len(e.elements)
	bounds := make([]int, n)
	for i, el := range e.elements {
		bounds[i] = c.UpperBound(el.Symbol)
	}

	var result []chem.MolecularFormula
	counts := make([]int, n)
	var dfs func(i int, acc float64)
	dfs = func(i int, acc float64) {
		if i == n-1 {
			m := e.masses[i]
			kmin := int(math.Ceil((lo - acc) / m))
			if kmin < 0 {
				kmin = 0
			}
			kmax := int(math.Floor((hi - acc) / m))
			if kmax > bounds[i] {
				kmax = bounds[i]
			}
			for k := kmin; k <= kmax; k++ {
				counts[i] = k
				if f, ok := e.formula(counts, c); ok {
					result = append(result, f)
				}
			}
			counts[i] = 0
			return
		}
		for k := 0; k <= bounds[i]; k++ {
			m := acc + float64(k)*e.masses[i]
			if m > hi {
				break
			}
			counts[i] = k
			dfs(i+1, m)
		}
		counts[i] = 0
	}
	dfs(0, 0)

	sort.SliceStable(result, func(i, j int) bool {
		return math.Abs(result[i].Mass()-mass) < math.Abs(result[j].Mass()-mass)
	})
	return result, nil
}

func (e *Engine) formula(counts []int, c chem.FormulaConstraints) (chem.MolecularFormula, bool) {
	m := make(map[string]int, len(counts))
	for i, n := range counts {
		if n > 0 {
			m[e.elements[i].Symbol] = n
		}
	}
	if len(m) == 0 {
		return chem.MolecularFormula{}, false
	}
	f, err := chem.NewFormula(m)
	if err != nil {
		return chem.MolecularFormula{}, false
	}
	return f, c.IsSatisfied(f)
}
