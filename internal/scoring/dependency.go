package scoring

import (
	"errors"
	"fmt"
)

// IntensityDependency maps a relative peak intensity to a factor, usually a
// multiplier of a standard deviation
type IntensityDependency interface {
	ValueAt(intensity float64) float64
}

// ErrInvalidDependency is returned for malformed piecewise-linear functions
var ErrInvalidDependency = errors.New("scoring: invalid intensity dependency")

// FixedIntensityDependency has the same value at every intensity
type FixedIntensityDependency struct {
	Value float64
}

// ValueAt implements IntensityDependency
func (d FixedIntensityDependency) ValueAt(float64) float64 {
	return d.Value
}

// LinearIntensityDependency interpolates linearly between LowestValue at
// intensity 0 and FullValue at FullIntensity. Above FullIntensity the value
// is FullValue.
type LinearIntensityDependency struct {
	FullIntensity float64
	FullValue     float64
	LowestValue   float64
}

// ValueAt implements IntensityDependency
func (d LinearIntensityDependency) ValueAt(intensity float64) float64 {
	if intensity >= d.FullIntensity {
		return d.FullValue
	}
	if intensity <= 0 {
		return d.LowestValue
	}
	return d.LowestValue + (d.FullValue-d.LowestValue)*intensity/d.FullIntensity
}

// PiecewiseLinearIntensityDependency interpolates between breakpoints given
// in descending intensity order. Intensities above the first breakpoint get
// the first value, intensities below the last get the last value.
type PiecewiseLinearIntensityDependency struct {
	Breakpoints []float64
	Values      []float64
}

// NewPiecewiseLinear checks the breakpoints and creates the dependency
func NewPiecewiseLinear(breakpoints, values []float64) (PiecewiseLinearIntensityDependency, error) {
	if len(breakpoints) == 0 || len(breakpoints) != len(values) {
		return PiecewiseLinearIntensityDependency{}, fmt.Errorf("%w: %d breakpoints, %d values",
			ErrInvalidDependency, len(breakpoints), len(values))
	}
	for i := 1; i < len(breakpoints); i++ {
		if breakpoints[i] >= breakpoints[i-1] {
			return PiecewiseLinearIntensityDependency{}, fmt.Errorf("%w: breakpoints not descending",
				ErrInvalidDependency)
		}
	}
	return PiecewiseLinearIntensityDependency{
		Breakpoints: append([]float64(nil), breakpoints...),
		Values:      append([]float64(nil), values...),
	}, nil
}

// ValueAt implements IntensityDependency
func (d PiecewiseLinearIntensityDependency) ValueAt(intensity float64) float64 {
	bp := d.Breakpoints
	if len(bp) == 0 {
		return 1
	}
	if intensity >= bp[0] {
		return d.Values[0]
	}
	for i := 1; i < len(bp); i++ {
		if intensity >= bp[i] {
			f := (intensity - bp[i]) / (bp[i-1] - bp[i])
			return d.Values[i] + f*(d.Values[i-1]-d.Values[i])
		}
	}
	return d.Values[len(d.Values)-1]
}
