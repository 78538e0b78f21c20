package ms

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// NormalizationMode selects which quantity is scaled to the base value
type NormalizationMode int

const (
	// NormalizeSum scales the summed intensity to the base value
	NormalizeSum NormalizationMode = iota
	// NormalizeMax scales the most intense peak to the base value
	NormalizeMax
)

// Normalization describes how intensities are rescaled
type Normalization struct {
	Mode NormalizationMode
	Base float64
}

// Sum returns a normalization to a total intensity of base
func Sum(base float64) Normalization {
	return Normalization{Mode: NormalizeSum, Base: base}
}

// Max returns a normalization of the base peak to base
func Max(base float64) Normalization {
	return Normalization{Mode: NormalizeMax, Base: base}
}

func (n Normalization) String() string {
	switch n.Mode {
	case NormalizeMax:
		return fmt.Sprintf("max(%g)", n.Base)
	default:
		return fmt.Sprintf("sum(%g)", n.Base)
	}
}

// Normalize returns a rescaled copy of s. The input is not modified.
func Normalize(s Spectrum, n Normalization) (Spectrum, error) {
	if len(s) == 0 {
		return nil, ErrEmptySpectrum
	}
	in := s.Intensities()
	var ref float64
	switch n.Mode {
	case NormalizeMax:
		ref = floats.Max(in)
	default:
		ref = floats.Sum(in)
	}
	if ref == 0 {
		return nil, ErrZeroIntensity
	}
	floats.Scale(n.Base/ref, in)
	c := s.Copy()
	for i := range c {
		c[i].Intens = in[i]
	}
	return c, nil
}
