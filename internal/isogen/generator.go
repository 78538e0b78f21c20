// Package isogen simulates theoretical isotope patterns of molecular
// formulas.
//
// Isotope peaks are aggregated per nominal mass: the k-th peak holds the
// probability of all isotopologues that are k Dalton heavier than the
// monoisotopic one, at their probability-weighted mean mass. Element
// distributions are raised to their atom count by repeated squaring and
// then convolved.
package isogen

import (
	"errors"
	"fmt"
	"math"

	"github.com/524D/mzisotope/internal/chem"
	"github.com/524D/mzisotope/internal/ms"
)

// Defaults of a new Generator
const (
	DefaultMaxPeaks       = 10
	DefaultMinProbability = 1e-3
)

var (
	// ErrEmptyFormula is returned when simulating a formula without atoms
	ErrEmptyFormula = errors.New("isogen: empty formula")
	// ErrNegativeCount is returned when the ionized formula has a negative
	// element count
	ErrNegativeCount = errors.New("isogen: negative element count")
)

// Simulator produces theoretical isotope patterns
type Simulator interface {
	Simulate(f chem.MolecularFormula, ion chem.Ionization) (ms.Spectrum, error)
}

// Generator simulates isotope patterns from a table of isotope abundances.
// A Generator is not modified by Simulate and may be used concurrently.
type Generator struct {
	Table *chem.Table
	// MaxPeaks is the maximal number of peaks in a simulated pattern
	MaxPeaks int
	// MinProbability drops trailing peaks whose probability relative to the
	// most intense peak is below this value
	MinProbability float64
	Normalization  ms.Normalization
}

// NewGenerator returns a generator on the default isotope table that
// produces at most 10 peaks, normalized to sum 1
func NewGenerator() *Generator {
	return &Generator{
		Table:          chem.DefaultTable(),
		MaxPeaks:       DefaultMaxPeaks,
		MinProbability: DefaultMinProbability,
		Normalization:  ms.Sum(1),
	}
}

type bucket struct {
	p float64 // probability
	m float64 // probability-weighted mean mass
}

// Simulate computes the isotope pattern of f ionized by ion. The ion atoms
// are added to the formula and the masses are divided by the absolute
// charge. Masses are ascending, starting at the monoisotopic ion mass.
// Peak i is always the i-th nominal isotope peak: a bucket that no isotope
// combination reaches, like M+1 of Na2Cl, stays as a zero intensity peak.
func (g *Generator) Simulate(f chem.MolecularFormula, ion chem.Ionization) (ms.Spectrum, error) {
	if f.IsEmpty() {
		return nil, ErrEmptyFormula
	}
	if ion.Charge == 0 {
		return nil, chem.ErrZeroCharge
	}
	full := f.Add(ion.Atoms)
	if !full.IsNonNegative() || full.IsEmpty() {
		return nil, fmt.Errorf("%w: %s with %s", ErrNegativeCount, f, ion)
	}
	maxPeaks := g.MaxPeaks
	if maxPeaks <= 0 {
		maxPeaks = DefaultMaxPeaks
	}
	table := g.Table
	if table == nil {
		table = chem.DefaultTable()
	}

	dist := []bucket{{p: 1, m: 0}}
	for _, sym := range full.Symbols() {
		e, err := table.Element(sym)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", err, sym)
		}
		dist = convolve(dist, power(atomDistribution(e), full.Count(sym), maxPeaks), maxPeaks)
	}

	dist = trim(dist, g.MinProbability)

	z := float64(ion.Charge)
	s := make(ms.Spectrum, len(dist))
	for i, b := range dist {
		s[i] = ms.Peak{
			Mz:     (b.m - z*chem.ElectronMass) / math.Abs(z),
			Intens: b.p,
		}
	}
	n := g.Normalization
	if n.Base == 0 {
		n = ms.Sum(1)
	}
	return ms.Normalize(s, n)
}

// atomDistribution places each isotope of e in the bucket of its nominal
// mass distance to the monoisotopic isotope
func atomDistribution(e *chem.Element) []bucket {
	mono := e.Isotopes[0].NominalMass()
	n := e.Isotopes[len(e.Isotopes)-1].NominalMass() - mono + 1
	d := make([]bucket, n)
	acc := make([]float64, n)
	for _, iso := range e.Isotopes {
		k := iso.NominalMass() - mono
		d[k].p += iso.Abundance
		acc[k] += iso.Abundance * iso.Mass
	}
	for k := range d {
		if d[k].p > 0 {
			d[k].m = acc[k] / d[k].p
		} else {
			d[k].m = e.Isotopes[0].Mass + float64(k)
		}
	}
	return d
}

// power computes the distribution of n atoms by repeated squaring
func power(d []bucket, n, maxPeaks int) []bucket {
	result := []bucket{{p: 1, m: 0}}
	for n > 0 {
		if n&1 == 1 {
			result = convolve(result, d, maxPeaks)
		}
		n >>= 1
		if n > 0 {
			d = convolve(d, d, maxPeaks)
		}
	}
	return result
}

func convolve(a, b []bucket, maxPeaks int) []bucket {
	n := len(a) + len(b) - 1
	if n > maxPeaks {
		n = maxPeaks
	}
	out := make([]bucket, n)
	acc := make([]float64, n)
	for i := range a {
		for j := range b {
			k := i + j
			if k >= n {
				break
			}
			p := a[i].p * b[j].p
			out[k].p += p
			acc[k] += p * (a[i].m + b[j].m)
		}
	}
	for k := range out {
		if out[k].p > 0 {
			out[k].m = acc[k] / out[k].p
		} else {
			out[k].m = a[0].m + b[0].m + float64(k)
		}
	}
	return out
}

// trim drops trailing buckets below minProb relative to the largest one
func trim(d []bucket, minProb float64) []bucket {
	max := 0.0
	for _, b := range d {
		max = math.Max(max, b.p)
	}
	last := 0
	for k, b := range d {
		if b.p >= minProb*max {
			last = k
		}
	}
	return d[:last+1]
}
