package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/524D/mzisotope/internal/ms"
	"github.com/524D/mzisotope/internal/scoring"
)

func TestDefaultAnalyzer(t *testing.T) {
	a, err := Default().Analyzer()
	require.NoError(t, err)
	assert.Equal(t, 0.01, a.Cutoff())
	assert.Equal(t, 0.0, a.IntensityOffset())
	require.Len(t, a.Scorers(), 2)
	assert.IsType(t, &scoring.MassDeviationScorer{}, a.Scorers()[0])
	assert.IsType(t, &scoring.LogNormIntensityScorer{}, a.Scorers()[1])

	p := a.DefaultProfile()
	assert.Equal(t, ms.NewDeviation(10), p.Allowed())
	assert.Equal(t, ms.NewDeviation(2.5), p.MassDifference())
	assert.Equal(t, "C,Cl,H,N,Na,O,P,S", p.Alphabet().Key())
	assert.Equal(t, 1, p.Constraints.UpperBound("Cl"))
	assert.Equal(t, 25, p.Constraints.UpperBound("O"))
}

func TestParse(t *testing.T) {
	in := `
cutoff: 0.02
intensityOffset: 0.01
scorers:
  - type: massDifferenceDeviation
    dependency:
      type: linear
      fullIntensity: 0.2
      fullValue: 1
      lowestValue: 3
  - type: normalIntensity
profile:
  allowedMassDeviation: {ppm: 20, absolute: 0.002}
  elements: [C, H, N, O]
  upperBounds: {N: 4}
`
	cfg, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	a, err := cfg.Analyzer()
	require.NoError(t, err)
	assert.Equal(t, 0.02, a.Cutoff())
	assert.Equal(t, 0.01, a.IntensityOffset())
	require.Len(t, a.Scorers(), 2)
	md, ok := a.Scorers()[0].(*scoring.MassDifferenceDeviationScorer)
	require.True(t, ok)
	assert.InDelta(t, 3, md.Dependency.ValueAt(0), 1e-12)
	assert.InDelta(t, 2, md.Dependency.ValueAt(0.1), 1e-12)

	p := a.DefaultProfile()
	assert.Equal(t, ms.Deviation{Ppm: 20, Absolute: 0.002}, p.Allowed())
	assert.Equal(t, ms.NewDeviation(5), p.Ms1(), "unset fields keep their defaults")
	assert.Equal(t, "C,H,N,O", p.Alphabet().Key())
	assert.Equal(t, 4, p.Constraints.UpperBound("N"))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"scorer", "scorers: [{type: magic}]", ErrUnknownScorer},
		{"dependency", "scorers: [{type: massDeviation, dependency: {type: cubic}}]", ErrUnknownDependency},
		{"breakpoints", "scorers: [{type: massDeviation, dependency: {type: piecewiseLinear, breakpoints: [0.1, 0.2], values: [1, 2]}}]", scoring.ErrInvalidDependency},
		{"extractor", "extractor: none", ErrUnknownExtractor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse(strings.NewReader(tt.in))
			require.NoError(t, err)
			_, err = cfg.Analyzer()
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, err := Parse(strings.NewReader("cutof: 0.1"))
	assert.Error(t, err, "unknown fields are rejected")
}

func TestExportLoad(t *testing.T) {
	cfg := Default()
	cfg.Cutoff = 0.05
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, cfg))
	assert.Contains(t, buf.String(), "isotopes:")

	path := filepath.Join(t.TempDir(), "analyzer.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.05, loaded.Cutoff)
	assert.ElementsMatch(t, cfg.Profile.Elements, loaded.Isotopes)
	assert.Equal(t, cfg.Scorers, loaded.Scorers)

	_, err = loaded.Analyzer()
	require.NoError(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MZISOTOPE_CUTOFF", "0.03")
	t.Setenv("MZISOTOPE_PPM", "3")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0.03, cfg.Cutoff)
	assert.Equal(t, ms.NewDeviation(3), *cfg.Profile.AllowedMassDeviation)

	t.Setenv("MZISOTOPE_CUTOFF", "x")
	_, err = Load("")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
