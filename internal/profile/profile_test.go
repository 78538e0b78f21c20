package profile

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/524D/mzisotope/internal/chem"
	"github.com/524D/mzisotope/internal/ms"
)

func TestMergeOverrides(t *testing.T) {
	base := Default()
	override := MeasurementProfile{
		AllowedMassDeviation: Deviation(20),
		IntensityDeviation:   Float(0.05),
	}
	m := Merge(base, override)

	if got, want := m.Allowed(), ms.NewDeviation(20); got != want {
		t.Errorf("allowed deviation = %v, want %v", got, want)
	}
	if got := *m.IntensityDeviation; got != 0.05 {
		t.Errorf("intensity deviation = %v, want 0.05", got)
	}
	if got, want := m.Ms1(), ms.NewDeviation(5); got != want {
		t.Errorf("MS1 deviation = %v, want %v", got, want)
	}
	if m.Alphabet().Key() != base.Alphabet().Key() {
		t.Errorf("alphabet = %v, want %v", m.Alphabet(), base.Alphabet())
	}
}

func TestMergeDoesNotMutate(t *testing.T) {
	base := Default()
	override := MeasurementProfile{StandardMs1MassDeviation: Deviation(1)}
	baseBefore := base.clone()
	overrideBefore := override.clone()

	m := Merge(base, override)
	*m.StandardMs1MassDeviation = ms.NewDeviation(99)
	*m.AllowedMassDeviation = ms.NewDeviation(99)

	opts := cmp.Options{
		cmpopts.IgnoreFields(MeasurementProfile{}, "Constraints"),
	}
	if diff := cmp.Diff(baseBefore, base, opts); diff != "" {
		t.Errorf("base modified (-before +after):\n%s", diff)
	}
	if diff := cmp.Diff(overrideBefore, override, opts); diff != "" {
		t.Errorf("override modified (-before +after):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default profile invalid: %v", err)
	}
	p := Default()
	p.Constraints = nil
	if err := p.Validate(); !errors.Is(err, ErrNoConstraints) {
		t.Errorf("Validate() = %v, want %v", err, ErrNoConstraints)
	}
	if _, err := p.FormulaConstraints(); !errors.Is(err, ErrNoConstraints) {
		t.Errorf("FormulaConstraints() = %v, want %v", err, ErrNoConstraints)
	}
	c, _ := chem.NewConstraints(chem.MustAlphabet("C", "H"), nil)
	p = MeasurementProfile{Constraints: &c}
	if err := p.Validate(); !errors.Is(err, ErrMissingDeviation) {
		t.Errorf("Validate() = %v, want %v", err, ErrMissingDeviation)
	}
}
