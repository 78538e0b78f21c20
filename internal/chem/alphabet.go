package chem

import (
	"sort"
	"strings"
)

// ChemicalAlphabet is an ordered set of elements that formulas may be
// built from. Elements are kept in ascending monoisotopic mass order.
type ChemicalAlphabet struct {
	elements []*Element
}

// NewAlphabet creates an alphabet from element symbols looked up in t
func NewAlphabet(t *Table, symbols ...string) (ChemicalAlphabet, error) {
	seen := make(map[string]bool, len(symbols))
	elements := make([]*Element, 0, len(symbols))
	for _, sym := range symbols {
		if seen[sym] {
			continue
		}
		seen[sym] = true
		e, err := t.Element(sym)
		if err != nil {
			return ChemicalAlphabet{}, err
		}
		elements = append(elements, e)
	}
	sort.SliceStable(elements, func(i, j int) bool {
		return elements[i].Mass() < elements[j].Mass()
	})
	return ChemicalAlphabet{elements: elements}, nil
}

// MustAlphabet is NewAlphabet on the default table that panics on error
func MustAlphabet(symbols ...string) ChemicalAlphabet {
	a, err := NewAlphabet(defaultTable, symbols...)
	if err != nil {
		panic(err)
	}
	return a
}

// Elements returns the elements of the alphabet by ascending mass
func (a ChemicalAlphabet) Elements() []*Element {
	return a.elements
}

// Symbols returns the element symbols by ascending mass
func (a ChemicalAlphabet) Symbols() []string {
	s := make([]string, len(a.elements))
	for i, e := range a.elements {
		s[i] = e.Symbol
	}
	return s
}

// Contains reports whether the alphabet holds the element
func (a ChemicalAlphabet) Contains(symbol string) bool {
	for _, e := range a.elements {
		if e.Symbol == symbol {
			return true
		}
	}
	return false
}

// Size is the number of elements
func (a ChemicalAlphabet) Size() int {
	return len(a.elements)
}

// Key identifies the alphabet independent of element order
func (a ChemicalAlphabet) Key() string {
	s := a.Symbols()
	sort.Strings(s)
	return strings.Join(s, ",")
}

// Extend returns a new alphabet that also contains the given elements
func (a ChemicalAlphabet) Extend(t *Table, symbols ...string) (ChemicalAlphabet, error) {
	return NewAlphabet(t, append(a.Symbols(), symbols...)...)
}

// ExtendedAlphabet is the alphabet used to compute isotope windows when the
// exact composition is not known: CHNOPS plus the halogens, Na, K and Si.
func ExtendedAlphabet() ChemicalAlphabet {
	return MustAlphabet("C", "H", "N", "O", "P", "S", "Cl", "Br", "I", "F", "Na", "K", "Si")
}

func (a ChemicalAlphabet) String() string {
	return strings.Join(a.Symbols(), "")
}
