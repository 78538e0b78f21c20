// Package scoring compares a measured isotope pattern with a simulated one.
//
// Every scorer returns a log-likelihood style score, higher is better.
// Scorers write cumulative scores: after scoring, slot i holds the score of
// the first i+1 peaks, so the last slot holds the score of the pattern.
// Negative infinity rejects the candidate.
package scoring

import (
	"math"

	"github.com/524D/mzisotope/internal/ms"
	"github.com/524D/mzisotope/internal/profile"
)

// Scorer scores a measured pattern against a theoretical one. Both spectra
// are mass ordered and peak i of measured corresponds to isotope peak i of
// theoretical; theoretical has at least as many peaks as measured. The
// scores are added to the slots, which have the length of measured.
type Scorer interface {
	Score(scores []float64, measured, theoretical ms.Spectrum, norm ms.Normalization, p profile.MeasurementProfile)
}

// Total runs one scorer and returns the score of the complete pattern
func Total(s Scorer, measured, theoretical ms.Spectrum, norm ms.Normalization, p profile.MeasurementProfile) float64 {
	if len(measured) == 0 {
		return 0
	}
	scores := make([]float64, len(measured))
	s.Score(scores, measured, theoretical, norm, p)
	return scores[len(scores)-1]
}

// logErfc returns log(erfc(|delta|/(sqrt(2)*sd))), the log probability of
// a normally distributed error being at least as large as delta
func logErfc(delta, sd float64) float64 {
	if sd <= 0 || math.IsNaN(sd) {
		if delta == 0 {
			return 0
		}
		return math.Inf(-1)
	}
	return math.Log(math.Erfc(math.Abs(delta) / (math.Sqrt2 * sd)))
}

// truncated returns s cut to n peaks and normalized with norm
func truncated(s ms.Spectrum, n int, norm ms.Normalization) (ms.Spectrum, error) {
	if len(s) > n {
		s = s[:n]
	}
	return ms.Normalize(s, norm)
}
