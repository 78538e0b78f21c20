// Package profile holds the measurement profile: instrument accuracies and
// formula constraints shared by extraction, decomposition and scoring.
package profile

import (
	"errors"

	"github.com/524D/mzisotope/internal/chem"
	"github.com/524D/mzisotope/internal/ms"
)

// MeasurementProfile bundles the measurement parameters. Nil fields are
// unset; Merge fills them from another profile. A profile is not modified
// after construction and can be shared between goroutines.
type MeasurementProfile struct {
	Constraints *chem.FormulaConstraints
	// AllowedMassDeviation is the total mass error accepted for a candidate
	AllowedMassDeviation *ms.Deviation
	// StandardMs1MassDeviation is the standard deviation of MS1 mass errors
	StandardMs1MassDeviation *ms.Deviation
	StandardMs2MassDeviation *ms.Deviation
	// StandardMassDifferenceDeviation is the standard deviation of the
	// mass difference between two peaks of one isotope pattern
	StandardMassDifferenceDeviation *ms.Deviation
	// IntensityDeviation is the expected relative intensity error
	IntensityDeviation *float64
	MedianNoiseIntensity *float64
}

var (
	// ErrNoConstraints is returned when a profile without formula
	// constraints is used for decomposition
	ErrNoConstraints = errors.New("profile: no formula constraints")
	// ErrMissingDeviation is returned when a required deviation is not set
	ErrMissingDeviation = errors.New("profile: missing mass deviation")
)

// Default returns the default profile of a high resolution instrument:
// 10 ppm allowed, 5 ppm standard MS1/MS2 deviation, 2.5 ppm standard mass
// difference deviation, over CHNOPSClNa with Cl<=1, Na<=1, P<=3, S<=3,
// N<=10, O<=25.
func Default() MeasurementProfile {
	alphabet := chem.MustAlphabet("C", "H", "N", "O", "P", "S", "Cl", "Na")
	c, err := chem.NewConstraints(alphabet, map[string]int{
		"Cl": 1, "Na": 1, "P": 3, "S": 3, "N": 10, "O": 25,
	})
	if err != nil {
		panic(err)
	}
	return MeasurementProfile{
		Constraints:                     &c,
		AllowedMassDeviation:            devPtr(ms.NewDeviation(10)),
		StandardMs1MassDeviation:        devPtr(ms.NewDeviation(5)),
		StandardMs2MassDeviation:        devPtr(ms.NewDeviation(5)),
		StandardMassDifferenceDeviation: devPtr(ms.NewDeviation(2.5)),
		IntensityDeviation:              floatPtr(0.008),
		MedianNoiseIntensity:            floatPtr(0.02),
	}
}

// Merge returns a new profile with the fields of override where they are
// set and those of base otherwise. Neither argument is modified.
func Merge(base, override MeasurementProfile) MeasurementProfile {
	m := base.clone()
	o := override.clone()
	if o.Constraints != nil {
		m.Constraints = o.Constraints
	}
	if o.AllowedMassDeviation != nil {
		m.AllowedMassDeviation = o.AllowedMassDeviation
	}
	if o.StandardMs1MassDeviation != nil {
		m.StandardMs1MassDeviation = o.StandardMs1MassDeviation
	}
	if o.StandardMs2MassDeviation != nil {
		m.StandardMs2MassDeviation = o.StandardMs2MassDeviation
	}
	if o.StandardMassDifferenceDeviation != nil {
		m.StandardMassDifferenceDeviation = o.StandardMassDifferenceDeviation
	}
	if o.IntensityDeviation != nil {
		m.IntensityDeviation = o.IntensityDeviation
	}
	if o.MedianNoiseIntensity != nil {
		m.MedianNoiseIntensity = o.MedianNoiseIntensity
	}
	return m
}

// clone copies all pointed-to values so that the result shares no memory
// with p
func (p MeasurementProfile) clone() MeasurementProfile {
	var c MeasurementProfile
	if p.Constraints != nil {
		v := *p.Constraints
		c.Constraints = &v
	}
	c.AllowedMassDeviation = copyDev(p.AllowedMassDeviation)
	c.StandardMs1MassDeviation = copyDev(p.StandardMs1MassDeviation)
	c.StandardMs2MassDeviation = copyDev(p.StandardMs2MassDeviation)
	c.StandardMassDifferenceDeviation = copyDev(p.StandardMassDifferenceDeviation)
	if p.IntensityDeviation != nil {
		c.IntensityDeviation = floatPtr(*p.IntensityDeviation)
	}
	if p.MedianNoiseIntensity != nil {
		c.MedianNoiseIntensity = floatPtr(*p.MedianNoiseIntensity)
	}
	return c
}

// Validate checks that the fields needed for analysis are set
func (p MeasurementProfile) Validate() error {
	if p.Constraints == nil {
		return ErrNoConstraints
	}
	if p.AllowedMassDeviation == nil || p.StandardMs1MassDeviation == nil ||
		p.StandardMassDifferenceDeviation == nil {
		return ErrMissingDeviation
	}
	return nil
}

// FormulaConstraints returns the constraints or ErrNoConstraints
func (p MeasurementProfile) FormulaConstraints() (chem.FormulaConstraints, error) {
	if p.Constraints == nil {
		return chem.FormulaConstraints{}, ErrNoConstraints
	}
	return *p.Constraints, nil
}

// Alphabet returns the alphabet of the constraints, or CHNOPS if none are set
func (p MeasurementProfile) Alphabet() chem.ChemicalAlphabet {
	if p.Constraints == nil {
		return chem.MustAlphabet("C", "H", "N", "O", "P", "S")
	}
	return p.Constraints.Alphabet()
}

// Allowed returns the allowed mass deviation, or the zero deviation
func (p MeasurementProfile) Allowed() ms.Deviation { return devOrZero(p.AllowedMassDeviation) }

// Ms1 returns the standard MS1 mass deviation, or the zero deviation
func (p MeasurementProfile) Ms1() ms.Deviation { return devOrZero(p.StandardMs1MassDeviation) }

// MassDifference returns the standard mass difference deviation, or the
// zero deviation
func (p MeasurementProfile) MassDifference() ms.Deviation {
	return devOrZero(p.StandardMassDifferenceDeviation)
}

func devOrZero(d *ms.Deviation) ms.Deviation {
	if d == nil {
		return ms.Deviation{}
	}
	return *d
}

func copyDev(d *ms.Deviation) *ms.Deviation {
	if d == nil {
		return nil
	}
	return devPtr(*d)
}

func devPtr(d ms.Deviation) *ms.Deviation { return &d }

func floatPtr(f float64) *float64 { return &f }

// Deviation returns a pointer to a deviation of ppm parts per million, for
// building partial profiles
func Deviation(ppm float64) *ms.Deviation { return devPtr(ms.NewDeviation(ppm)) }

// Float returns a pointer to f, for building partial profiles
func Float(f float64) *float64 { return floatPtr(f) }
