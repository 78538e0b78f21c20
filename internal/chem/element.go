// Package chem holds the chemistry model used by the isotope pattern
// pipeline: elements and their isotopes, molecular formulas, chemical
// alphabets with formula constraints, and ionization.
package chem

import (
	"errors"
	"math"
	"sort"

	"github.com/524D/mzisotope/internal/ms"
)

// ElectronMass in Dalton
const ElectronMass = 0.00054857990946

// ProtonMass in Dalton
const ProtonMass = 1.007276466879

// Isotope of an element with its natural abundance (0..1)
type Isotope struct {
	Mass      float64
	Abundance float64
}

// NominalMass is the integer mass of the isotope
func (i Isotope) NominalMass() int {
	return int(math.Round(i.Mass))
}

// Element is a chemical element. Isotopes are ordered by mass; the first
// isotope is the monoisotopic one.
type Element struct {
	Symbol   string
	Valence  int
	Isotopes []Isotope
}

// Mass returns the monoisotopic mass of the element
func (e *Element) Mass() float64 {
	return e.Isotopes[0].Mass
}

// Table is an isotope database that maps element symbols to elements.
// A Table is never modified after construction and may be shared.
type Table struct {
	elements map[string]*Element
}

var (
	// ErrUnknownElement is returned for symbols that are not in the table
	ErrUnknownElement = errors.New("chem: unknown element")
)

// Isotope masses and abundances from NIST. Only elements whose lightest
// isotope is also the most abundant are included.
var defaultElements = []Element{
	{"H", 1, []Isotope{{1.00782503207, 0.999885}, {2.0141017778, 0.000115}}},
	{"C", 4, []Isotope{{12.0, 0.9893}, {13.0033548378, 0.0107}}},
	{"N", 3, []Isotope{{14.0030740048, 0.99636}, {15.0001088982, 0.00364}}},
	{"O", 2, []Isotope{{15.99491461956, 0.99757}, {16.99913170, 0.00038}, {17.9991610, 0.00205}}},
	{"F", 1, []Isotope{{18.99840322, 1.0}}},
	{"Na", 1, []Isotope{{22.9897692809, 1.0}}},
	{"Si", 4, []Isotope{{27.9769265325, 0.92223}, {28.976494700, 0.04685}, {29.97377017, 0.03092}}},
	{"P", 3, []Isotope{{30.97376163, 1.0}}},
	{"S", 2, []Isotope{{31.97207100, 0.9499}, {32.97145876, 0.0075}, {33.96786690, 0.0425}, {35.96708076, 0.0001}}},
	{"Cl", 1, []Isotope{{34.96885268, 0.7576}, {36.96590259, 0.2424}}},
	{"K", 1, []Isotope{{38.96370668, 0.932581}, {39.96399848, 0.000117}, {40.96182576, 0.067302}}},
	{"Br", 1, []Isotope{{78.9183371, 0.5069}, {80.9162906, 0.4931}}},
	{"I", 1, []Isotope{{126.904473, 1.0}}},
}

var defaultTable = NewTable(defaultElements)

// DefaultTable returns the built-in isotope table
func DefaultTable() *Table {
	return defaultTable
}

// NewTable builds a table from a list of elements. The elements are copied.
func NewTable(elements []Element) *Table {
	t := &Table{elements: make(map[string]*Element, len(elements))}
	for _, e := range elements {
		e := e
		e.Isotopes = append([]Isotope(nil), e.Isotopes...)
		sort.Slice(e.Isotopes, func(i, j int) bool { return e.Isotopes[i].Mass < e.Isotopes[j].Mass })
		t.elements[e.Symbol] = &e
	}
	return t
}

// Element looks up an element by symbol
func (t *Table) Element(symbol string) (*Element, error) {
	e, ok := t.elements[symbol]
	if !ok {
		return nil, ErrUnknownElement
	}
	return e, nil
}

// Symbols returns all element symbols in the table, sorted
func (t *Table) Symbols() []string {
	s := make([]string, 0, len(t.elements))
	for sym := range t.elements {
		s = append(s, sym)
	}
	sort.Strings(s)
	return s
}

// Subset returns a new table that only contains the given elements
func (t *Table) Subset(symbols ...string) (*Table, error) {
	elements := make([]Element, 0, len(symbols))
	for _, sym := range symbols {
		e, err := t.Element(sym)
		if err != nil {
			return nil, err
		}
		elements = append(elements, *e)
	}
	return NewTable(elements), nil
}

// LargestIsotopeDefect returns, over all non-monoisotopic isotopes of the
// alphabet's elements, the largest distance between exact and integer mass
func (t *Table) LargestIsotopeDefect(alphabet ChemicalAlphabet) float64 {
	delta := 0.0
	for _, e := range alphabet.Elements() {
		for k := 1; k < len(e.Isotopes); k++ {
			iso := e.Isotopes[k]
			delta = math.Max(delta, math.Abs(iso.Mass-float64(iso.NominalMass())))
		}
	}
	return delta
}

// IsotopicMassWindow returns the inclusive mass interval in which the k-th
// isotope peak of a compound with monoisotopic mass baseMass, made of the
// alphabet's elements, is expected
func (t *Table) IsotopicMassWindow(alphabet ChemicalAlphabet, dev ms.Deviation,
	baseMass float64, k int) (float64, float64) {
	minPerDa := math.Inf(1)
	maxPerDa := math.Inf(-1)
	for _, e := range alphabet.Elements() {
		for i := 1; i < len(e.Isotopes); i++ {
			d := e.Isotopes[i].NominalMass() - e.Isotopes[0].NominalMass()
			if d <= 0 {
				continue
			}
			perDa := (e.Isotopes[i].Mass - e.Isotopes[0].Mass) / float64(d)
			minPerDa = math.Min(minPerDa, perDa)
			maxPerDa = math.Max(maxPerDa, perDa)
		}
	}
	if math.IsInf(minPerDa, 1) {
		minPerDa, maxPerDa = 1, 1
	}
	tol := dev.AbsoluteFor(baseMass)
	fk := float64(k)
	return baseMass + fk*minPerDa - tol, baseMass + fk*maxPerDa + tol
}
