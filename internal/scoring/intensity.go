package scoring

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/524D/mzisotope/internal/ms"
	"github.com/524D/mzisotope/internal/profile"
)

// NormalIntensityScorer models the difference between measured and
// theoretical intensity as normally distributed, with a standard deviation
// of Dependency(measured) times the measured intensity
type NormalIntensityScorer struct {
	Dependency IntensityDependency
}

// NewNormalIntensityScorer uses a fixed relative deviation of 10%
func NewNormalIntensityScorer() *NormalIntensityScorer {
	return &NormalIntensityScorer{Dependency: FixedIntensityDependency{Value: 0.1}}
}

// Score implements Scorer
func (s *NormalIntensityScorer) Score(scores []float64, measured, theoretical ms.Spectrum, norm ms.Normalization, _ profile.MeasurementProfile) {
	th, err := truncated(theoretical, len(measured), norm)
	if err != nil {
		reject(scores)
		return
	}
	score := 0.0
	for i := range measured {
		intens := measured[i].Intens
		sd := valueAt(s.Dependency, intens) * intens
		score += logTail(intens-th[i].Intens, sd)
		scores[i] += score
	}
}

// LogNormIntensityScorer models the log ratio of measured and theoretical
// intensity as normally distributed, with a standard deviation of
// log(1 + Dependency(measured))
type LogNormIntensityScorer struct {
	Dependency IntensityDependency
}

// NewLogNormIntensityScorer uses the intensity accuracies of a high
// resolution instrument
func NewLogNormIntensityScorer() *LogNormIntensityScorer {
	return &LogNormIntensityScorer{Dependency: PiecewiseLinearIntensityDependency{
		Breakpoints: []float64{1.0, 0.3, 0.15, 0.03},
		Values:      []float64{0.7, 0.6, 0.8, 0.5},
	}}
}

// Score implements Scorer
func (s *LogNormIntensityScorer) Score(scores []float64, measured, theoretical ms.Spectrum, norm ms.Normalization, _ profile.MeasurementProfile) {
	th, err := truncated(theoretical, len(measured), norm)
	if err != nil {
		reject(scores)
		return
	}
	score := 0.0
	for i := range measured {
		intens := measured[i].Intens
		if intens <= 0 || th[i].Intens <= 0 {
			score = math.Inf(-1)
		} else {
			sd := math.Log1p(valueAt(s.Dependency, intens))
			score += logTail(math.Log(intens/th[i].Intens), sd)
		}
		scores[i] += score
	}
}

// logTail is the log of the two sided tail probability of delta under a
// centered normal distribution
func logTail(delta, sd float64) float64 {
	if sd <= 0 || math.IsNaN(sd) {
		if delta == 0 {
			return 0
		}
		return math.Inf(-1)
	}
	n := distuv.Normal{Mu: 0, Sigma: sd}
	return math.Log(2 * n.Survival(math.Abs(delta)))
}

func reject(scores []float64) {
	for i := range scores {
		scores[i] = math.Inf(-1)
	}
}
