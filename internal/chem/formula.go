package chem

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// MolecularFormula maps element symbols to atom counts. A formula is
// immutable; Add and Subtract return new formulas. Counts of formulas
// produced by the decomposer are non-negative, but ion adducts may carry
// negative counts (e.g. a deprotonation).
type MolecularFormula struct {
	atoms map[string]int
}

var (
	// ErrInvalidFormula is returned when a formula string cannot be parsed
	ErrInvalidFormula = errors.New("chem: invalid formula")
)

// NewFormula creates a formula from element counts. Zero counts are dropped.
func NewFormula(counts map[string]int) (MolecularFormula, error) {
	atoms := make(map[string]int, len(counts))
	for sym, n := range counts {
		if _, err := defaultTable.Element(sym); err != nil {
			return MolecularFormula{}, fmt.Errorf("%w: %s", err, sym)
		}
		if n != 0 {
			atoms[sym] = n
		}
	}
	return MolecularFormula{atoms: atoms}, nil
}

// MustFormula parses a formula and panics on error. Intended for constants.
func MustFormula(s string) MolecularFormula {
	f, err := ParseFormula(s)
	if err != nil {
		panic(err)
	}
	return f
}

// ParseFormula parses formulas like "C6H12O6" or "C3H6(CH2)8C3H6".
// Parenthesised groups may be followed by a multiplier.
func ParseFormula(s string) (MolecularFormula, error) {
	counts, rest, err := parseGroup(strings.TrimSpace(s))
	if err != nil {
		return MolecularFormula{}, err
	}
	if rest != "" {
		return MolecularFormula{}, fmt.Errorf("%w: unbalanced ')' in %q", ErrInvalidFormula, s)
	}
	return NewFormula(counts)
}

// parseGroup parses until end of string or an unmatched ')'. It returns the
// remaining string starting at that ')'.
func parseGroup(s string) (map[string]int, string, error) {
	counts := make(map[string]int)
	for len(s) > 0 {
		c := rune(s[0])
		switch {
		case c == '(':
			inner, rest, err := parseGroup(s[1:])
			if err != nil {
				return nil, "", err
			}
			if rest == "" || rest[0] != ')' {
				return nil, "", fmt.Errorf("%w: missing ')'", ErrInvalidFormula)
			}
			n, r := parseCount(rest[1:])
			for sym, k := range inner {
				counts[sym] += k * n
			}
			s = r
		case c == ')':
			return counts, s, nil
		case unicode.IsUpper(c):
			i := 1
			for i < len(s) && unicode.IsLower(rune(s[i])) {
				i++
			}
			sym := s[:i]
			if _, err := defaultTable.Element(sym); err != nil {
				return nil, "", fmt.Errorf("%w: %s", err, sym)
			}
			n, r := parseCount(s[i:])
			counts[sym] += n
			s = r
		default:
			return nil, "", fmt.Errorf("%w: unexpected %q", ErrInvalidFormula, c)
		}
	}
	return counts, "", nil
}

// parseCount reads an optional multiplier, which defaults to 1
func parseCount(s string) (int, string) {
	i := 0
	for i < len(s) && unicode.IsDigit(rune(s[i])) {
		i++
	}
	if i == 0 {
		return 1, s
	}
	n, _ := strconv.Atoi(s[:i])
	return n, s[i:]
}

// Count returns the number of atoms of an element
func (f MolecularFormula) Count(symbol string) int {
	return f.atoms[symbol]
}

// Symbols returns the elements present in the formula, in Hill order
func (f MolecularFormula) Symbols() []string {
	syms := make([]string, 0, len(f.atoms))
	for sym := range f.atoms {
		syms = append(syms, sym)
	}
	_, hasC := f.atoms["C"]
	sort.Slice(syms, func(i, j int) bool {
		if hasC {
			ri, rj := hillRank(syms[i]), hillRank(syms[j])
			if ri != rj {
				return ri < rj
			}
		}
		return syms[i] < syms[j]
	})
	return syms
}

func hillRank(sym string) int {
	switch sym {
	case "C":
		return 0
	case "H":
		return 1
	}
	return 2
}

// IsEmpty reports whether the formula has no atoms
func (f MolecularFormula) IsEmpty() bool {
	return len(f.atoms) == 0
}

// IsNonNegative reports whether no element has a negative count
func (f MolecularFormula) IsNonNegative() bool {
	for _, n := range f.atoms {
		if n < 0 {
			return false
		}
	}
	return true
}

// AtomCount returns the total number of atoms
func (f MolecularFormula) AtomCount() int {
	total := 0
	for _, n := range f.atoms {
		total += n
	}
	return total
}

// Add returns the sum of both formulas
func (f MolecularFormula) Add(g MolecularFormula) MolecularFormula {
	return f.combine(g, 1)
}

// Subtract returns f minus g
func (f MolecularFormula) Subtract(g MolecularFormula) MolecularFormula {
	return f.combine(g, -1)
}

func (f MolecularFormula) combine(g MolecularFormula, sign int) MolecularFormula {
	atoms := make(map[string]int, len(f.atoms)+len(g.atoms))
	for sym, n := range f.atoms {
		atoms[sym] = n
	}
	for sym, n := range g.atoms {
		atoms[sym] += sign * n
		if atoms[sym] == 0 {
			delete(atoms, sym)
		}
	}
	return MolecularFormula{atoms: atoms}
}

// Mass returns the monoisotopic mass of the formula
func (f MolecularFormula) Mass() float64 {
	m := 0.0
	for sym, n := range f.atoms {
		e, _ := defaultTable.Element(sym)
		m += float64(n) * e.Mass()
	}
	return m
}

// RDBE returns the ring and double bond equivalent of the formula
func (f MolecularFormula) RDBE() float64 {
	r := 2.0
	for sym, n := range f.atoms {
		e, _ := defaultTable.Element(sym)
		r += float64(n * (e.Valence - 2))
	}
	return r / 2
}

// Equal reports whether both formulas have the same atom counts
func (f MolecularFormula) Equal(g MolecularFormula) bool {
	if len(f.atoms) != len(g.atoms) {
		return false
	}
	for sym, n := range f.atoms {
		if g.atoms[sym] != n {
			return false
		}
	}
	return true
}

// String formats the formula in Hill notation
func (f MolecularFormula) String() string {
	var b strings.Builder
	for _, sym := range f.Symbols() {
		n := f.atoms[sym]
		if n < 0 {
			b.WriteByte('-')
			n = -n
		}
		b.WriteString(sym)
		if n != 1 {
			b.WriteString(strconv.Itoa(n))
		}
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler
func (f MolecularFormula) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}
