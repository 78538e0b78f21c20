package config

import (
	"fmt"

	"github.com/524D/mzisotope/internal/analysis"
	"github.com/524D/mzisotope/internal/chem"
	"github.com/524D/mzisotope/internal/extract"
	"github.com/524D/mzisotope/internal/isogen"
	"github.com/524D/mzisotope/internal/ms"
	"github.com/524D/mzisotope/internal/scoring"
)

// Analyzer builds an analyzer from the configuration. opts are applied
// last and may replace logger, metrics or decomposer.
func (c Config) Analyzer(opts ...analysis.Option) (*analysis.Analyzer, error) {
	scorers := make([]scoring.Scorer, 0, len(c.Scorers))
	for _, sc := range c.Scorers {
		s, err := sc.Scorer()
		if err != nil {
			return nil, err
		}
		scorers = append(scorers, s)
	}

	table := chem.DefaultTable()
	if len(c.Isotopes) > 0 {
		// ion atoms are always simulated
		syms := append(append([]string(nil), c.Isotopes...), chem.IonElements()...)
		t, err := table.Subset(syms...)
		if err != nil {
			return nil, fmt.Errorf("isotopes: %w", err)
		}
		table = t
	}

	var extractor extract.PatternExtractor
	switch c.Extractor {
	case ExtractAll, "":
		extractor = &extract.ExtractAll{Table: table}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExtractor, c.Extractor)
	}

	gen := &isogen.Generator{
		Table:          table,
		MaxPeaks:       c.Generator.MaxPeaks,
		MinProbability: c.Generator.MinProbability,
		Normalization:  ms.Sum(1),
	}

	p, err := c.Profile.Profile()
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	base := []analysis.Option{
		analysis.WithScorers(scorers...),
		analysis.WithCutoff(c.Cutoff),
		analysis.WithIntensityOffset(c.IntensityOffset),
		analysis.WithExtractor(extractor),
		analysis.WithGenerator(gen),
		analysis.WithProfile(p),
	}
	return analysis.New(append(base, opts...)...), nil
}

// Scorer builds the configured scorer. Without a dependency the scorer's
// own default dependency is used.
func (sc ScorerConfig) Scorer() (scoring.Scorer, error) {
	var dep scoring.IntensityDependency
	if sc.Dependency != nil {
		d, err := sc.Dependency.Dependency()
		if err != nil {
			return nil, fmt.Errorf("scorer %s: %w", sc.Type, err)
		}
		dep = d
	}
	switch sc.Type {
	case MassDeviationScorer:
		s := scoring.NewMassDeviationScorer()
		if dep != nil {
			s.Dependency = dep
		}
		return s, nil
	case MassDifferenceDeviationScorer:
		s := scoring.NewMassDifferenceDeviationScorer()
		if dep != nil {
			s.Dependency = dep
		}
		return s, nil
	case NormalIntensityScorer:
		s := scoring.NewNormalIntensityScorer()
		if dep != nil {
			s.Dependency = dep
		}
		return s, nil
	case LogNormIntensityScorer:
		s := scoring.NewLogNormIntensityScorer()
		if dep != nil {
			s.Dependency = dep
		}
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScorer, sc.Type)
}

// Dependency builds the configured intensity dependency
func (dc DependencyConfig) Dependency() (scoring.IntensityDependency, error) {
	switch dc.Type {
	case FixedDependency:
		return scoring.FixedIntensityDependency{Value: dc.Value}, nil
	case LinearDependency:
		if dc.FullIntensity <= 0 {
			return nil, fmt.Errorf("%w: fullIntensity must be positive", scoring.ErrInvalidDependency)
		}
		return scoring.LinearIntensityDependency{
			FullIntensity: dc.FullIntensity,
			FullValue:     dc.FullValue,
			LowestValue:   dc.LowestValue,
		}, nil
	case PiecewiseLinearDependency:
		return scoring.NewPiecewiseLinear(dc.Breakpoints, dc.Values)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDependency, dc.Type)
}
