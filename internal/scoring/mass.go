package scoring

import (
	"github.com/524D/mzisotope/internal/ms"
	"github.com/524D/mzisotope/internal/profile"
)

// MassDeviationScorer scores the m/z of every peak against the m/z of the
// theoretical peak, with the standard MS1 deviation of the profile scaled by
// the intensity dependency
type MassDeviationScorer struct {
	Dependency IntensityDependency
}

// NewMassDeviationScorer uses full accuracy for peaks of at least 15%
// relative intensity and 1.5 times the deviation at 5% and below
func NewMassDeviationScorer() *MassDeviationScorer {
	return &MassDeviationScorer{Dependency: PiecewiseLinearIntensityDependency{
		Breakpoints: []float64{0.15, 0.05},
		Values:      []float64{1.0, 1.5},
	}}
}

// Score implements Scorer
func (s *MassDeviationScorer) Score(scores []float64, measured, theoretical ms.Spectrum, _ ms.Normalization, p profile.MeasurementProfile) {
	dev := p.Ms1()
	score := 0.0
	for i := range measured {
		mz := measured[i].Mz
		sd := dev.AbsoluteFor(mz) * valueAt(s.Dependency, measured[i].Intens)
		score += logErfc(theoretical[i].Mz-mz, sd)
		scores[i] += score
	}
}

// MassDifferenceDeviationScorer scores the m/z distance of every peak to
// the first peak. The first peak itself contributes nothing.
type MassDifferenceDeviationScorer struct {
	Dependency IntensityDependency
}

// NewMassDifferenceDeviationScorer doubles the standard deviation for peaks
// with zero intensity, decreasing linearly to full accuracy at 10%
func NewMassDifferenceDeviationScorer() *MassDifferenceDeviationScorer {
	return &MassDifferenceDeviationScorer{Dependency: LinearIntensityDependency{
		FullIntensity: 0.1,
		FullValue:     1,
		LowestValue:   2,
	}}
}

// Score implements Scorer
func (s *MassDifferenceDeviationScorer) Score(scores []float64, measured, theoretical ms.Spectrum, _ ms.Normalization, p profile.MeasurementProfile) {
	dev := p.MassDifference()
	mz0 := measured[0].Mz
	thMz0 := theoretical[0].Mz
	score := 0.0
	for i := 1; i < len(measured); i++ {
		mz := measured[i].Mz - mz0
		thMz := theoretical[i].Mz - thMz0
		sd := dev.AbsoluteFor(measured[i].Mz) * valueAt(s.Dependency, measured[i].Intens)
		score += logErfc(thMz-mz, sd)
		scores[i] += score
	}
}

func valueAt(d IntensityDependency, intensity float64) float64 {
	if d == nil {
		return 1
	}
	return d.ValueAt(intensity)
}
