package analysis

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/524D/mzisotope/internal/chem"
	"github.com/524D/mzisotope/internal/ms"
	"github.com/524D/mzisotope/internal/profile"
	"github.com/524D/mzisotope/internal/scoring"
)

// ApplyCutoff removes trailing peaks below cutoff and renormalizes with
// norm. It returns false, and s unchanged, if the first peak is below
// cutoff.
func ApplyCutoff(s ms.Spectrum, cutoff float64, norm ms.Normalization) (ms.Spectrum, bool, error) {
	if len(s) == 0 {
		return nil, false, ms.ErrEmptySpectrum
	}
	if s[0].Intens < cutoff {
		return s, false, nil
	}
	n := len(s)
	for n > 1 && s[n-1].Intens < cutoff {
		n--
	}
	out, err := ms.Normalize(s[:n], norm)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// ScoreFormulas scores every formula against the measured pattern and
// returns the scores in formula order.
//
// The pattern is normalized to summedIntensities; if that is not positive,
// to its own total intensity. If the monoisotopic peak of the normalized
// pattern is below the cutoff, every formula scores -Inf. A formula whose
// simulated pattern has fewer peaks than the measured one is scored against
// the measured pattern cut to the same length.
func (a *Analyzer) ScoreFormulas(pattern ms.Spectrum, summedIntensities float64, formulas []chem.MolecularFormula,
	ionType chem.PrecursorIonType, p profile.MeasurementProfile) ([]float64, error) {
	if summedIntensities <= 0 {
		summedIntensities = pattern.TotalIntensity()
	}
	norm := ms.Sum(summedIntensities)
	spec, err := ms.Normalize(pattern, norm)
	if err != nil {
		return nil, fmt.Errorf("normalizing pattern: %w", err)
	}
	if a.offset != 0 {
		spec, err = ms.Normalize(ms.AddOffset(spec, 0, a.offset), norm)
		if err != nil {
			return nil, fmt.Errorf("normalizing pattern: %w", err)
		}
	}

	scores := make([]float64, len(formulas))
	measured, ok, err := ApplyCutoff(spec, a.cutoff, norm)
	if err != nil {
		return nil, err
	}
	if !ok {
		a.logger.Debug("monoisotopic peak below cutoff",
			zap.Float64("mz", spec[0].Mz),
			zap.Float64("intensity", spec[0].Intens),
			zap.Float64("cutoff", a.cutoff))
		a.metrics.unscorable()
		for i := range scores {
			scores[i] = math.Inf(-1)
		}
		return scores, nil
	}

	ion := ionType.Ionization()
	rejected := 0
	for k, f := range formulas {
		theoretical, err := a.generator.Simulate(ionType.MeasuredFormula(f), ion)
		if err != nil {
			return nil, fmt.Errorf("simulating %s: %w", f, err)
		}
		if len(theoretical) < len(measured) {
			short, err := ms.Normalize(measured[:len(theoretical)], ms.Sum(1))
			if err != nil {
				return nil, err
			}
			scores[k] = a.sumScores(short, theoretical, norm, p)
		} else {
			scores[k] = a.sumScores(measured, theoretical, norm, p)
		}
		if math.IsInf(scores[k], -1) {
			rejected++
		}
	}
	a.metrics.scored(len(formulas), rejected)
	return scores, nil
}

// sumScores adds the scores of all scorers, stopping at the first -Inf
func (a *Analyzer) sumScores(measured, theoretical ms.Spectrum, norm ms.Normalization, p profile.MeasurementProfile) float64 {
	total := 0.0
	for _, s := range a.scorers {
		v := scoring.Total(s, measured, theoretical, norm, p)
		if math.IsInf(v, -1) {
			return v
		}
		total += v
	}
	return total
}
