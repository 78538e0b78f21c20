package ms

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var testSpec = Spectrum{
	{Mz: 301.1, Intens: 20},
	{Mz: 300.1, Intens: 100},
	{Mz: 302.1, Intens: 4},
	{Mz: 299.2, Intens: 40},
}

func TestOrderingsDoNotModifyInput(t *testing.T) {
	orig := testSpec.Copy()

	byMz := MassOrdered(testSpec)
	wantMz := Spectrum{{299.2, 40}, {300.1, 100}, {301.1, 20}, {302.1, 4}}
	if diff := cmp.Diff(wantMz, byMz); diff != "" {
		t.Errorf("MassOrdered mismatch (-want +got):\n%s", diff)
	}
	if !byMz.IsMassOrdered() {
		t.Errorf("IsMassOrdered: false, should be true")
	}

	byInt := IntensityOrdered(testSpec)
	wantInt := Spectrum{{300.1, 100}, {299.2, 40}, {301.1, 20}, {302.1, 4}}
	if diff := cmp.Diff(wantInt, byInt); diff != "" {
		t.Errorf("IntensityOrdered mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(orig, testSpec); diff != "" {
		t.Errorf("input was modified (-want +got):\n%s", diff)
	}
}

func TestNormalizeSum(t *testing.T) {
	for _, total := range []float64{1, 0.5, 100, 1234.5} {
		n, err := Normalize(testSpec, Sum(total))
		if err != nil {
			t.Fatalf("Normalize: error return %v", err)
		}
		if got := n.TotalIntensity(); math.Abs(got-total) > 1e-9 {
			t.Errorf("Normalize(Sum(%g)): total %g", total, got)
		}
		if diff := cmp.Diff(testSpec.Masses(), n.Masses()); diff != "" {
			t.Errorf("Normalize changed masses (-want +got):\n%s", diff)
		}
	}
	if testSpec[1].Intens != 100 {
		t.Errorf("Normalize modified its input")
	}
}

func TestNormalizeMax(t *testing.T) {
	n, err := Normalize(testSpec, Max(1))
	if err != nil {
		t.Fatalf("Normalize: error return %v", err)
	}
	want := []float64{0.2, 1, 0.04, 0.4}
	if diff := cmp.Diff(want, n.Intensities(), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Normalize(Max(1)) mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeErrors(t *testing.T) {
	_, err := Normalize(nil, Sum(1))
	if !errors.Is(err, ErrEmptySpectrum) {
		t.Errorf("Normalize(nil): error %v, should be ErrEmptySpectrum", err)
	}
	_, err = Normalize(Spectrum{{100, 0}, {101, 0}}, Sum(1))
	if !errors.Is(err, ErrZeroIntensity) {
		t.Errorf("Normalize(zero): error %v, should be ErrZeroIntensity", err)
	}
}

func TestAddOffset(t *testing.T) {
	s := AddOffset(Spectrum{{100, 0.5}, {101, 0.25}}, 0, 0.02)
	want := Spectrum{{100, 0.52}, {101, 0.27}}
	if diff := cmp.Diff(want, s, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("AddOffset mismatch (-want +got):\n%s", diff)
	}
}

func TestMostIntensePeakWithin(t *testing.T) {
	s := Spectrum{{99.9990, 5}, {100.0000, 3}, {100.0005, 8}, {100.1, 50}}
	i := MostIntensePeakWithin(s, 100, Deviation{Ppm: 10, Absolute: 0.001})
	if i != 2 {
		t.Errorf("MostIntensePeakWithin: %d, should be 2", i)
	}
	i = MostIntensePeakWithin(s, 200, NewDeviation(10))
	if i != -1 {
		t.Errorf("MostIntensePeakWithin: %d, should be -1", i)
	}
	i = MostIntensePeakWithin(nil, 200, NewDeviation(10))
	if i != -1 {
		t.Errorf("MostIntensePeakWithin(nil): %d, should be -1", i)
	}
}
