// Package ms contains the peak and spectrum types shared by the isotope
// pattern pipeline, together with mass tolerances and normalization.
package ms

import (
	"errors"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Peak is a single m/z, intensity pair
type Peak struct {
	Mz     float64
	Intens float64
}

// Spectrum is a sequence of peaks. Most functions in this package expect
// a mass-ordered spectrum; the orderings are produced by MassOrdered and
// IntensityOrdered, which never modify their argument.
type Spectrum []Peak

var (
	// ErrEmptySpectrum is returned when an operation needs at least one peak
	ErrEmptySpectrum = errors.New("ms: empty spectrum")
	// ErrZeroIntensity means a spectrum cannot be normalized
	ErrZeroIntensity = errors.New("ms: total intensity is zero")
)

// Copy returns a copy of the spectrum that does not share storage
func (s Spectrum) Copy() Spectrum {
	if s == nil {
		return nil
	}
	c := make(Spectrum, len(s))
	copy(c, s)
	return c
}

// Masses returns the m/z values of all peaks
func (s Spectrum) Masses() []float64 {
	m := make([]float64, len(s))
	for i, p := range s {
		m[i] = p.Mz
	}
	return m
}

// Intensities returns the intensities of all peaks
func (s Spectrum) Intensities() []float64 {
	in := make([]float64, len(s))
	for i, p := range s {
		in[i] = p.Intens
	}
	return in
}

// TotalIntensity returns the summed intensity of all peaks
func (s Spectrum) TotalIntensity() float64 {
	if len(s) == 0 {
		return 0
	}
	return floats.Sum(s.Intensities())
}

// MaxIntensity returns the intensity of the most intense peak
func (s Spectrum) MaxIntensity() float64 {
	if len(s) == 0 {
		return 0
	}
	return floats.Max(s.Intensities())
}

// IsMassOrdered reports whether the peaks are in ascending m/z order
func (s Spectrum) IsMassOrdered() bool {
	return sort.SliceIsSorted(s, func(i, j int) bool { return s[i].Mz < s[j].Mz })
}

// MassOrdered returns a copy of s sorted by ascending m/z.
// Peaks with equal m/z keep their relative order.
func MassOrdered(s Spectrum) Spectrum {
	c := s.Copy()
	sort.SliceStable(c, func(i, j int) bool { return c[i].Mz < c[j].Mz })
	return c
}

// IntensityOrdered returns a copy of s sorted by descending intensity,
// so the most intense peak is at the front
func IntensityOrdered(s Spectrum) Spectrum {
	c := s.Copy()
	sort.SliceStable(c, func(i, j int) bool { return c[i].Intens > c[j].Intens })
	return c
}

// AddOffset returns a copy of s with mzOffset added to every m/z and
// intensOffset added to every intensity
func AddOffset(s Spectrum, mzOffset, intensOffset float64) Spectrum {
	c := s.Copy()
	for i := range c {
		c[i].Mz += mzOffset
		c[i].Intens += intensOffset
	}
	return c
}

// MostIntensePeakWithin returns the index of the most intense peak within
// dev of mz, or -1 if there is none. The spectrum must be mass-ordered.
func MostIntensePeakWithin(s Spectrum, mz float64, dev Deviation) int {
	d := dev.AbsoluteFor(mz)
	i1 := sort.Search(len(s), func(i int) bool { return s[i].Mz >= mz-d })
	i2 := sort.Search(len(s), func(i int) bool { return s[i].Mz > mz+d })

	best := -1
	for i := i1; i < i2; i++ {
		if best < 0 || s[i].Intens > s[best].Intens {
			best = i
		}
	}
	return best
}
