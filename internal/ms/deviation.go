package ms

import (
	"fmt"
	"math"
)

// Deviation is a mass accuracy window with a relative (ppm) and an
// absolute part. The effective tolerance at a mass is the larger of both.
type Deviation struct {
	Ppm      float64 `yaml:"ppm" json:"ppm"`
	Absolute float64 `yaml:"absolute" json:"absolute"`
}

// NewDeviation returns a deviation of ppm parts per million, with the
// absolute part set to ppm*1e-4 Dalton (the ppm value at 100 Da)
func NewDeviation(ppm float64) Deviation {
	return Deviation{Ppm: ppm, Absolute: ppm * 1e-4}
}

// DeviationFromMeasurement returns the deviation between a measured and
// a reference mass
func DeviationFromMeasurement(measured, reference float64) Deviation {
	diff := math.Abs(measured - reference)
	return Deviation{Ppm: diff * 1e6 / reference, Absolute: diff}
}

// AbsoluteFor returns the tolerance in Dalton at the given mass
func (d Deviation) AbsoluteFor(mass float64) float64 {
	return math.Max(d.Ppm*mass*1e-6, d.Absolute)
}

// InErrorWindow reports whether observed lies within the tolerance around
// expected. The tolerance is computed at expected, so the test is not
// symmetric in its arguments.
func (d Deviation) InErrorWindow(expected, observed float64) bool {
	return math.Abs(expected-observed) <= d.AbsoluteFor(expected)
}

// Multiply scales both parts of the deviation
func (d Deviation) Multiply(f float64) Deviation {
	return Deviation{Ppm: d.Ppm * f, Absolute: d.Absolute * f}
}

func (d Deviation) String() string {
	return fmt.Sprintf("%g ppm (%g Da)", d.Ppm, d.Absolute)
}
