package analysis

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/524D/mzisotope/internal/chem"
	"github.com/524D/mzisotope/internal/decomp"
	"github.com/524D/mzisotope/internal/experiment"
	"github.com/524D/mzisotope/internal/isogen"
	"github.com/524D/mzisotope/internal/ms"
	"github.com/524D/mzisotope/internal/profile"
)

type fixedDecomposer struct {
	formulas []chem.MolecularFormula
	err      error
	mu       sync.Mutex
	masses   []float64
}

func (d *fixedDecomposer) Decompose(mass float64, _ ms.Deviation, _ chem.FormulaConstraints) ([]chem.MolecularFormula, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.masses = append(d.masses, mass)
	return d.formulas, d.err
}

type fixedGenerator struct {
	pattern ms.Spectrum
}

func (g fixedGenerator) Simulate(chem.MolecularFormula, chem.Ionization) (ms.Spectrum, error) {
	return g.pattern.Copy(), nil
}

// recordingScorer adds a constant to the last slot and remembers its input
type recordingScorer struct {
	value    float64
	calls    int
	measured []ms.Spectrum
}

func (s *recordingScorer) Score(scores []float64, measured, _ ms.Spectrum, _ ms.Normalization, _ profile.MeasurementProfile) {
	s.calls++
	s.measured = append(s.measured, measured.Copy())
	scores[len(scores)-1] += s.value
}

func protonated(t *testing.T) chem.PrecursorIonType {
	t.Helper()
	p, err := chem.PrecursorIonTypeByName("[M+H]+")
	require.NoError(t, err)
	return p
}

func formulas(s ...string) []chem.MolecularFormula {
	f := make([]chem.MolecularFormula, len(s))
	for i := range s {
		f[i] = chem.MustFormula(s[i])
	}
	return f
}

func TestScoreFormulasBelowCutoff(t *testing.T) {
	scorer := &recordingScorer{}
	a := New(WithScorers(scorer), WithGenerator(fixedGenerator{ms.Spectrum{{Mz: 100, Intens: 1}}}))
	pattern := ms.Spectrum{{Mz: 100, Intens: 0.005}, {Mz: 101, Intens: 1.0}}
	scores, err := a.ScoreFormulas(pattern, 0, formulas("C6H6", "C5H5N", "C7H8"), protonated(t), profile.Default())
	require.NoError(t, err)
	require.Len(t, scores, 3)
	for i, s := range scores {
		assert.True(t, math.IsInf(s, -1), "score %d = %v", i, s)
	}
	assert.Zero(t, scorer.calls)
}

func TestEndToEndTwoPeaks(t *testing.T) {
	a := NewDefault(
		WithDecomposer(&fixedDecomposer{formulas: formulas("C7H8")}),
		WithGenerator(fixedGenerator{ms.Spectrum{{Mz: 100.000, Intens: 1.0}, {Mz: 101.0034, Intens: 0.0108}}}),
	)
	pattern := ms.Spectrum{{Mz: 100.000, Intens: 1.0}, {Mz: 101.0034, Intens: 0.011}}
	got, err := a.DeisotopePattern(protonated(t), pattern, profile.Default())
	require.NoError(t, err)
	require.True(t, got.IsScored())
	require.Len(t, got.Candidates, 1)
	best, ok := got.Best()
	require.True(t, ok)
	assert.Equal(t, "C7H8", best.Value.String())
	assert.False(t, math.IsInf(best.Score, 0), "score %v", best.Score)
	assert.False(t, math.IsNaN(best.Score))
}

func TestNoCandidates(t *testing.T) {
	a := NewDefault(WithDecomposer(&fixedDecomposer{}))
	pattern := ms.Spectrum{{Mz: 100, Intens: 1}, {Mz: 101.0034, Intens: 0.1}}
	got, err := a.DeisotopePattern(protonated(t), pattern, profile.Default())
	require.NoError(t, err)
	assert.True(t, got.IsScored())
	assert.Empty(t, got.Candidates)
}

func TestDecomposerErrorPropagates(t *testing.T) {
	a := NewDefault(WithDecomposer(&fixedDecomposer{err: decomp.ErrInvalidMass}))
	pattern := ms.Spectrum{{Mz: 100, Intens: 1}, {Mz: 101.0034, Intens: 0.1}}
	_, err := a.DeisotopePattern(protonated(t), pattern, profile.Default())
	assert.True(t, errors.Is(err, decomp.ErrInvalidMass))
}

func TestRejectionShortCircuits(t *testing.T) {
	reject := &recordingScorer{value: math.Inf(-1)}
	after := &recordingScorer{value: -1}
	a := New(
		WithScorers(reject, after),
		WithGenerator(fixedGenerator{ms.Spectrum{{Mz: 100, Intens: 0.9}, {Mz: 101, Intens: 0.1}}}),
	)
	pattern := ms.Spectrum{{Mz: 100, Intens: 0.9}, {Mz: 101, Intens: 0.1}}
	scores, err := a.ScoreFormulas(pattern, 1, formulas("C6H6", "C7H8"), protonated(t), profile.Default())
	require.NoError(t, err)
	for _, s := range scores {
		assert.True(t, math.IsInf(s, -1))
	}
	assert.Equal(t, 2, reject.calls)
	assert.Zero(t, after.calls)
}

func TestScoresAreSummed(t *testing.T) {
	a := New(
		WithScorers(&recordingScorer{value: -1.5}, &recordingScorer{value: -0.25}),
		WithGenerator(fixedGenerator{ms.Spectrum{{Mz: 100, Intens: 0.9}, {Mz: 101, Intens: 0.1}}}),
	)
	pattern := ms.Spectrum{{Mz: 100, Intens: 0.9}, {Mz: 101, Intens: 0.1}}
	scores, err := a.ScoreFormulas(pattern, 1, formulas("C6H6"), protonated(t), profile.Default())
	require.NoError(t, err)
	assert.InDelta(t, -1.75, scores[0], 1e-12)
}

func TestShortTheoreticalPattern(t *testing.T) {
	scorer := &recordingScorer{value: -2}
	a := New(
		WithScorers(scorer),
		WithGenerator(fixedGenerator{ms.Spectrum{{Mz: 100, Intens: 1}}}),
	)
	pattern := ms.Spectrum{{Mz: 100, Intens: 0.8}, {Mz: 101, Intens: 0.2}}
	scores, err := a.ScoreFormulas(pattern, 1, formulas("C6H6"), protonated(t), profile.Default())
	require.NoError(t, err)
	assert.Equal(t, -2.0, scores[0])
	require.Len(t, scorer.measured, 1)
	want := ms.Spectrum{{Mz: 100, Intens: 1}}
	if diff := cmp.Diff(want, scorer.measured[0], cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("truncated pattern mismatch (-want +got):\n%s", diff)
	}
}

func TestIntensityOffsetKeepsOrder(t *testing.T) {
	scorer := &recordingScorer{}
	a := New(
		WithScorers(scorer),
		WithIntensityOffset(0.02),
		WithGenerator(fixedGenerator{ms.Spectrum{{Mz: 200, Intens: 0.6}, {Mz: 201, Intens: 0.3}, {Mz: 202, Intens: 0.1}}}),
	)
	pattern := ms.Spectrum{{Mz: 200, Intens: 0.6}, {Mz: 201, Intens: 0.3}, {Mz: 202, Intens: 0.1}}
	_, err := a.ScoreFormulas(pattern, 1, formulas("C6H6"), protonated(t), profile.Default())
	require.NoError(t, err)
	require.Len(t, scorer.measured, 1)
	got := scorer.measured[0]
	want := ms.Spectrum{
		{Mz: 200, Intens: 0.62 / 1.06},
		{Mz: 201, Intens: 0.32 / 1.06},
		{Mz: 202, Intens: 0.12 / 1.06},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("offset pattern mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, got.IsMassOrdered())
	assert.InDelta(t, 1, got.TotalIntensity(), 1e-9)
}

func TestApplyCutoffIdempotent(t *testing.T) {
	s := ms.Spectrum{{Mz: 200, Intens: 0.7}, {Mz: 201, Intens: 0.25}, {Mz: 202, Intens: 0.045}, {Mz: 203, Intens: 0.005}}
	once, ok, err := ApplyCutoff(s, 0.01, ms.Sum(1))
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, once, 3)
	twice, ok, err := ApplyCutoff(once, 0.01, ms.Sum(1))
	require.NoError(t, err)
	require.True(t, ok)
	if diff := cmp.Diff(once, twice, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("second cutoff changed the pattern (-once +twice):\n%s", diff)
	}

	_, ok, err = ApplyCutoff(ms.Spectrum{{Mz: 100, Intens: 0.001}, {Mz: 101, Intens: 0.999}}, 0.01, ms.Sum(1))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnknownIonization(t *testing.T) {
	d := &fixedDecomposer{formulas: formulas("C6H12O6")}
	a := New(
		WithScorers(&recordingScorer{value: -1}),
		WithDecomposer(d),
		WithGenerator(fixedGenerator{ms.Spectrum{{Mz: 100, Intens: 0.9}, {Mz: 101, Intens: 0.1}}}),
	)
	pattern := ms.Spectrum{{Mz: 181.0707, Intens: 0.9}, {Mz: 182.0740, Intens: 0.1}}
	got, err := a.DeisotopePattern(chem.UnknownIonType(1), pattern, profile.Default())
	require.NoError(t, err)

	var names []string
	for _, c := range got.Candidates {
		names = append(names, c.Value.String())
	}
	assert.ElementsMatch(t, []string{"C6H13O6", "C6H12NaO6", "C6H12KO6"}, names)
	require.Len(t, d.masses, 3)
	h, _ := chem.IonByName("[M+H]+")
	assert.InDelta(t, h.ToNeutral(181.0707), d.masses[0], 1e-9)
}

func TestUnknownIonizationDropsRejected(t *testing.T) {
	a := New(
		WithScorers(&recordingScorer{value: math.Inf(-1)}),
		WithDecomposer(&fixedDecomposer{formulas: formulas("C6H12O6")}),
		WithGenerator(fixedGenerator{ms.Spectrum{{Mz: 100, Intens: 0.9}, {Mz: 101, Intens: 0.1}}}),
	)
	pattern := ms.Spectrum{{Mz: 181.0707, Intens: 0.9}, {Mz: 182.0740, Intens: 0.1}}
	got, err := a.DeisotopePattern(chem.UnknownIonType(1), pattern, profile.Default())
	require.NoError(t, err)
	assert.Empty(t, got.Candidates)
}

func TestRankingWithRealCollaborators(t *testing.T) {
	ion := protonated(t)
	glucose := chem.MustFormula("C6H12O6")
	pattern, err := isogen.NewGenerator().Simulate(glucose, ion.Ionization())
	require.NoError(t, err)

	a := NewDefault(WithDecomposer(decomp.NewCache()))
	got, err := a.DeisotopePattern(ion, pattern, profile.Default())
	require.NoError(t, err)
	require.NotEmpty(t, got.Candidates)
	assert.Equal(t, "C6H12O6", got.Candidates[0].Value.String())
	for i := 1; i < len(got.Candidates); i++ {
		assert.GreaterOrEqual(t, got.Candidates[i-1].Score, got.Candidates[i].Score)
	}
}

func TestDeisotopeExperiment(t *testing.T) {
	ion := protonated(t)
	glucose := chem.MustFormula("C6H12O6")
	pattern, err := isogen.NewGenerator().Simulate(glucose, ion.Ionization())
	require.NoError(t, err)
	noise := ms.Spectrum{{Mz: 150.05, Intens: 0.2}}
	exp := &experiment.Experiment{
		Name:    "glucose",
		IonMass: pattern[0].Mz,
		IonType: ion,
		MS1:     []ms.Spectrum{append(pattern.Copy(), noise...)},
	}

	a := NewDefault(WithDecomposer(decomp.NewCache()))
	untargeted, err := a.Deisotope(exp, nil)
	require.NoError(t, err)
	require.Len(t, untargeted, 1)
	assert.InDelta(t, pattern[0].Mz, untargeted[0].MonoisotopicMass(), 1e-9)

	targeted, err := a.DeisotopeAt(exp, exp.IonMass, &profile.MeasurementProfile{AllowedMassDeviation: profile.Deviation(5)})
	require.NoError(t, err)
	require.NotEmpty(t, targeted)
	best, ok := targeted[0].Best()
	require.True(t, ok)
	assert.Equal(t, "C6H12O6", best.Value.String())
}

func TestDeisotopeAll(t *testing.T) {
	ion := protonated(t)
	gen := isogen.NewGenerator()
	var exps []*experiment.Experiment
	for _, f := range []string{"C6H12O6", "C9H11NO2", "C5H5N5"} {
		s, err := gen.Simulate(chem.MustFormula(f), ion.Ionization())
		require.NoError(t, err)
		exps = append(exps, &experiment.Experiment{Name: f, IonMass: s[0].Mz, IonType: ion, MS1: []ms.Spectrum{s}})
	}
	a := NewDefault(WithDecomposer(decomp.NewCache()))
	results, err := a.DeisotopeAll(context.Background(), exps, nil, 2)
	require.NoError(t, err)
	require.Len(t, results, len(exps))
	for i, r := range results {
		assert.Same(t, exps[i], r.Experiment)
		require.NotEmpty(t, r.Patterns)
		best, ok := r.Patterns[0].Best()
		require.True(t, ok)
		assert.Equal(t, exps[i].Name, best.Value.String())
	}

	failing := NewDefault(WithDecomposer(&fixedDecomposer{err: decomp.ErrInvalidMass}))
	_, err = failing.DeisotopeAll(context.Background(), exps, nil, 2)
	assert.True(t, errors.Is(err, decomp.ErrInvalidMass))
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	cache := decomp.NewCache()
	m, err := NewMetrics(reg, cache)
	require.NoError(t, err)

	a := New(
		WithScorers(&recordingScorer{value: -1}),
		WithMetrics(m),
		WithGenerator(fixedGenerator{ms.Spectrum{{Mz: 100, Intens: 1}}}),
	)
	_, err = a.ScoreFormulas(ms.Spectrum{{Mz: 100, Intens: 0.001}, {Mz: 101, Intens: 1}}, 0,
		formulas("C6H6"), protonated(t), profile.Default())
	require.NoError(t, err)
	_, err = a.ScoreFormulas(ms.Spectrum{{Mz: 100, Intens: 1}}, 0,
		formulas("C6H6", "C7H8"), protonated(t), profile.Default())
	require.NoError(t, err)

	values := map[string]float64{}
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		values[mf.GetName()] = mf.GetMetric()[0].GetCounter().GetValue()
	}
	assert.Equal(t, 1.0, values["mzisotope_unscorable_patterns_total"])
	assert.Equal(t, 2.0, values["mzisotope_formulas_scored_total"])
	assert.Equal(t, 0.0, values["mzisotope_decomposer_cache_misses_total"])

	_, err = NewMetrics(reg, nil)
	assert.Error(t, err, "registering twice must fail")
}

func TestNilLoggerDiscards(t *testing.T) {
	a := NewDefault(
		WithLogger(nil),
		WithDecomposer(&fixedDecomposer{formulas: formulas("C7H8")}),
		WithGenerator(fixedGenerator{ms.Spectrum{{Mz: 100.000, Intens: 1.0}, {Mz: 101.0034, Intens: 0.0108}}}),
	)
	pattern := ms.Spectrum{{Mz: 100.000, Intens: 1.0}, {Mz: 101.0034, Intens: 0.011}}
	got, err := a.DeisotopePattern(protonated(t), pattern, profile.Default())
	require.NoError(t, err)
	require.Len(t, got.Candidates, 1)

	_, err = a.ScoreFormulas(ms.Spectrum{{Mz: 100, Intens: 0.001}, {Mz: 101, Intens: 1}}, 0,
		formulas("C7H8"), protonated(t), profile.Default())
	require.NoError(t, err)
}
