package scoring

import (
	"errors"
	"math"
	"testing"
)

func TestLinearIntensityDependency(t *testing.T) {
	d := LinearIntensityDependency{FullIntensity: 0.1, FullValue: 1, LowestValue: 2}
	tests := []struct {
		x, want float64
	}{
		{0, 2},
		{-1, 2},
		{0.05, 1.5},
		{0.1, 1},
		{0.7, 1},
	}
	for _, tt := range tests {
		if got := d.ValueAt(tt.x); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("ValueAt(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestPiecewiseLinearIntensityDependency(t *testing.T) {
	d, err := NewPiecewiseLinear([]float64{0.15, 0.05}, []float64{1.0, 1.5})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		x, want float64
	}{
		{1, 1},
		{0.15, 1},
		{0.1, 1.25},
		{0.05, 1.5},
		{0.001, 1.5},
	}
	for _, tt := range tests {
		if got := d.ValueAt(tt.x); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("ValueAt(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}

	four := NewLogNormIntensityScorer().Dependency
	if got := four.ValueAt(0.225); math.Abs(got-0.7) > 1e-12 {
		t.Errorf("ValueAt(0.225) = %v, want 0.7", got)
	}
}

func TestNewPiecewiseLinearErrors(t *testing.T) {
	for _, tc := range []struct {
		bp, v []float64
	}{
		{nil, nil},
		{[]float64{0.1, 0.2}, []float64{1, 2}},
		{[]float64{0.2, 0.1}, []float64{1}},
	} {
		if _, err := NewPiecewiseLinear(tc.bp, tc.v); !errors.Is(err, ErrInvalidDependency) {
			t.Errorf("NewPiecewiseLinear(%v, %v) = %v, want %v", tc.bp, tc.v, err, ErrInvalidDependency)
		}
	}
}

func TestFixedIntensityDependency(t *testing.T) {
	d := FixedIntensityDependency{Value: 3}
	if d.ValueAt(0) != 3 || d.ValueAt(1) != 3 {
		t.Errorf("fixed dependency not constant")
	}
}
