// Package analysis ranks molecular formula candidates of a precursor by
// comparing its measured isotope pattern with simulated patterns.
//
// An Analyzer extracts isotope patterns from the MS1 spectra of an
// experiment, normalizes them, enumerates formulas within the allowed mass
// deviation and sums the scores of its scorers for every formula. If the
// ionization of the experiment is unknown, all known ion modes of its
// charge are tried.
package analysis

import (
	"go.uber.org/zap"

	"github.com/524D/mzisotope/internal/decomp"
	"github.com/524D/mzisotope/internal/extract"
	"github.com/524D/mzisotope/internal/isogen"
	"github.com/524D/mzisotope/internal/profile"
	"github.com/524D/mzisotope/internal/scoring"
)

// DefaultCutoff is the minimal relative intensity of a scored peak
const DefaultCutoff = 0.01

// Analyzer scores isotope patterns. Its configuration is not modified by
// the analysis methods, so one Analyzer may serve several goroutines.
type Analyzer struct {
	scorers    []scoring.Scorer
	cutoff     float64
	offset     float64
	extractor  extract.PatternExtractor
	generator  isogen.Simulator
	decomposer decomp.Decomposer
	profile    profile.MeasurementProfile
	logger     *zap.Logger
	metrics    *Metrics
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithScorers replaces the scorers
func WithScorers(s ...scoring.Scorer) Option {
	return func(a *Analyzer) { a.scorers = append([]scoring.Scorer(nil), s...) }
}

// WithCutoff sets the minimal relative intensity of scored peaks
func WithCutoff(c float64) Option {
	return func(a *Analyzer) { a.cutoff = c }
}

// WithIntensityOffset sets an intensity added to every normalized peak
// before scoring
func WithIntensityOffset(o float64) Option {
	return func(a *Analyzer) { a.offset = o }
}

// WithExtractor sets the pattern extractor
func WithExtractor(x extract.PatternExtractor) Option {
	return func(a *Analyzer) { a.extractor = x }
}

// WithGenerator sets the pattern simulator
func WithGenerator(g isogen.Simulator) Option {
	return func(a *Analyzer) { a.generator = g }
}

// WithDecomposer sets the formula decomposer
func WithDecomposer(d decomp.Decomposer) Option {
	return func(a *Analyzer) { a.decomposer = d }
}

// WithProfile sets the default measurement profile
func WithProfile(p profile.MeasurementProfile) Option {
	return func(a *Analyzer) { a.profile = p }
}

// WithLogger sets the logger. A nil logger discards all messages.
func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) {
		if l == nil {
			l = zap.NewNop()
		}
		a.logger = l
	}
}

// WithMetrics sets the metrics collectors
func WithMetrics(m *Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// New creates an analyzer without scorers, with cutoff 0.01, no intensity
// offset, the default profile and the shared decomposer cache
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		cutoff:     DefaultCutoff,
		extractor:  extract.NewExtractAll(),
		generator:  isogen.NewGenerator(),
		decomposer: decomp.DefaultCache(),
		profile:    profile.Default(),
		logger:     zap.NewNop(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// NewDefault creates an analyzer that scores mass deviations and log-normal
// intensity deviations. opts are applied after the defaults.
func NewDefault(opts ...Option) *Analyzer {
	defaults := []Option{
		WithScorers(scoring.NewMassDeviationScorer(), scoring.NewLogNormIntensityScorer()),
	}
	return New(append(defaults, opts...)...)
}

// Scorers returns the scorers of the analyzer
func (a *Analyzer) Scorers() []scoring.Scorer { return a.scorers }

// Cutoff returns the minimal relative intensity of scored peaks
func (a *Analyzer) Cutoff() float64 { return a.cutoff }

// IntensityOffset returns the intensity offset
func (a *Analyzer) IntensityOffset() float64 { return a.offset }

// DefaultProfile returns the profile used when none is given
func (a *Analyzer) DefaultProfile() profile.MeasurementProfile { return a.profile }

// profileFor returns the default profile, merged with p if given
func (a *Analyzer) profileFor(p *profile.MeasurementProfile) (profile.MeasurementProfile, error) {
	merged := a.profile
	if p != nil {
		merged = profile.Merge(a.profile, *p)
	}
	if err := merged.Validate(); err != nil {
		return profile.MeasurementProfile{}, err
	}
	return merged, nil
}
