package analysis

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/524D/mzisotope/internal/chem"
	"github.com/524D/mzisotope/internal/experiment"
	"github.com/524D/mzisotope/internal/ms"
	"github.com/524D/mzisotope/internal/profile"
)

// ExtractPatterns returns the isotope patterns of all MS1 spectra of exp
func (a *Analyzer) ExtractPatterns(exp *experiment.Experiment) []IsotopePattern {
	return a.extract(exp, a.profile)
}

// ExtractPatternsAt returns the isotope patterns starting near targetMz in
// all MS1 spectra of exp
func (a *Analyzer) ExtractPatternsAt(exp *experiment.Experiment, targetMz float64, allowAdducts bool) []IsotopePattern {
	return a.extractAt(exp, a.profile, targetMz, allowAdducts)
}

func (a *Analyzer) extract(exp *experiment.Experiment, p profile.MeasurementProfile) []IsotopePattern {
	var patterns []IsotopePattern
	for _, s := range exp.MS1 {
		for _, pat := range a.extractor.Extract(p, s) {
			patterns = append(patterns, NewPattern(pat))
		}
	}
	a.metrics.extracted(len(patterns))
	return patterns
}

func (a *Analyzer) extractAt(exp *experiment.Experiment, p profile.MeasurementProfile, targetMz float64, allowAdducts bool) []IsotopePattern {
	var patterns []IsotopePattern
	for _, s := range exp.MS1 {
		for _, pat := range a.extractor.ExtractAt(p, s, targetMz, allowAdducts) {
			patterns = append(patterns, NewPattern(pat))
		}
	}
	a.metrics.extracted(len(patterns))
	return patterns
}

// Deisotope scores every isotope pattern found in the MS1 spectra of exp.
// p is merged into the default profile; nil uses the default profile. The
// merged profile is used for extraction as well.
func (a *Analyzer) Deisotope(exp *experiment.Experiment, p *profile.MeasurementProfile) ([]IsotopePattern, error) {
	prof, err := a.profileFor(p)
	if err != nil {
		return nil, err
	}
	return a.deisotopeAll(exp, a.extract(exp, prof), prof)
}

// DeisotopeAt scores the isotope patterns found at targetMz in the MS1
// spectra of exp
func (a *Analyzer) DeisotopeAt(exp *experiment.Experiment, targetMz float64, p *profile.MeasurementProfile) ([]IsotopePattern, error) {
	prof, err := a.profileFor(p)
	if err != nil {
		return nil, err
	}
	return a.deisotopeAll(exp, a.extractAt(exp, prof, targetMz, false), prof)
}

func (a *Analyzer) deisotopeAll(exp *experiment.Experiment, patterns []IsotopePattern, prof profile.MeasurementProfile) ([]IsotopePattern, error) {
	results := make([]IsotopePattern, 0, len(patterns))
	for _, pattern := range patterns {
		r, err := a.DeisotopePattern(exp.IonType, pattern.Pattern, prof)
		if err != nil {
			return nil, fmt.Errorf("%s: pattern at m/z %.4f: %w", exp.Name, pattern.MonoisotopicMass(), err)
		}
		results = append(results, r)
	}
	return results, nil
}

// DeisotopePattern ranks the formula candidates of one mass ordered
// isotope pattern. With a known ionization all candidates are returned,
// including rejected ones. With an unknown ionization every known ion mode
// of the charge is tried, rejected candidates are dropped and the ion atoms
// are added to the returned formulas.
func (a *Analyzer) DeisotopePattern(ionType chem.PrecursorIonType, pattern ms.Spectrum, p profile.MeasurementProfile) (IsotopePattern, error) {
	if len(pattern) == 0 {
		return IsotopePattern{}, ms.ErrEmptySpectrum
	}
	constraints, err := p.FormulaConstraints()
	if err != nil {
		return IsotopePattern{}, err
	}
	a.metrics.analysis()
	mono := pattern[0].Mz

	if ionType.IsUnknown() {
		var candidates []Scored[chem.MolecularFormula]
		for _, ion := range chem.KnownIonModes(ionType.Charge()) {
			formulas, err := a.decomposer.Decompose(ion.ToNeutral(mono), p.Allowed(), constraints)
			if err != nil {
				return IsotopePattern{}, err
			}
			a.logger.Debug("scoring ion mode",
				zap.Stringer("ion", ion),
				zap.Float64("mz", mono),
				zap.Int("candidates", len(formulas)))
			scores, err := a.ScoreFormulas(pattern, 1, formulas, chem.IonTypeFor(ion), p)
			if err != nil {
				return IsotopePattern{}, err
			}
			for k, f := range formulas {
				if !math.IsInf(scores[k], 0) {
					candidates = append(candidates, Scored[chem.MolecularFormula]{Value: f.Add(ion.Atoms), Score: scores[k]})
				}
			}
		}
		SortScored(candidates)
		return NewScoredPattern(pattern, candidates), nil
	}

	formulas, err := a.decomposer.Decompose(ionType.PrecursorToNeutral(mono), p.Allowed(), constraints)
	if err != nil {
		return IsotopePattern{}, err
	}
	a.logger.Debug("scoring formulas",
		zap.Stringer("ion", ionType),
		zap.Float64("mz", mono),
		zap.Int("candidates", len(formulas)))
	scores, err := a.ScoreFormulas(pattern, 1, formulas, ionType, p)
	if err != nil {
		return IsotopePattern{}, err
	}
	candidates := make([]Scored[chem.MolecularFormula], len(formulas))
	for k, f := range formulas {
		candidates[k] = Scored[chem.MolecularFormula]{Value: f, Score: scores[k]}
	}
	SortScored(candidates)
	return NewScoredPattern(pattern, candidates), nil
}
