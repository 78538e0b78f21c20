// Package config loads and writes the analyzer configuration as YAML:
// scorers with their intensity dependencies, cutoff, intensity offset,
// pattern extractor, isotope table subset, generator limits and the
// measurement profile.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/524D/mzisotope/internal/chem"
	"github.com/524D/mzisotope/internal/ms"
	"github.com/524D/mzisotope/internal/profile"
)

// Config is the analyzer configuration
type Config struct {
	Cutoff          float64         `yaml:"cutoff"`
	IntensityOffset float64         `yaml:"intensityOffset"`
	Extractor       string          `yaml:"extractor"`
	Isotopes        []string        `yaml:"isotopes,omitempty"`
	Scorers         []ScorerConfig  `yaml:"scorers"`
	Generator       GeneratorConfig `yaml:"generator"`
	Profile         ProfileConfig   `yaml:"profile"`
}

// ScorerConfig selects a scorer and its intensity dependency
type ScorerConfig struct {
	Type       string            `yaml:"type"`
	Dependency *DependencyConfig `yaml:"dependency,omitempty"`
}

// DependencyConfig describes an intensity dependency. Which fields are
// used depends on Type.
type DependencyConfig struct {
	Type          string    `yaml:"type"`
	Value         float64   `yaml:"value,omitempty"`
	FullIntensity float64   `yaml:"fullIntensity,omitempty"`
	FullValue     float64   `yaml:"fullValue,omitempty"`
	LowestValue   float64   `yaml:"lowestValue,omitempty"`
	Breakpoints   []float64 `yaml:"breakpoints,omitempty"`
	Values        []float64 `yaml:"values,omitempty"`
}

// GeneratorConfig limits the simulated isotope patterns
type GeneratorConfig struct {
	MaxPeaks       int     `yaml:"maxPeaks"`
	MinProbability float64 `yaml:"minProbability"`
}

// ProfileConfig is the measurement profile. Unset deviations stay unset
// in the profile.
type ProfileConfig struct {
	AllowedMassDeviation            *ms.Deviation  `yaml:"allowedMassDeviation,omitempty"`
	StandardMs1MassDeviation        *ms.Deviation  `yaml:"standardMs1MassDeviation,omitempty"`
	StandardMs2MassDeviation        *ms.Deviation  `yaml:"standardMs2MassDeviation,omitempty"`
	StandardMassDifferenceDeviation *ms.Deviation  `yaml:"standardMassDifferenceDeviation,omitempty"`
	IntensityDeviation              *float64       `yaml:"intensityDeviation,omitempty"`
	MedianNoiseIntensity            *float64       `yaml:"medianNoiseIntensity,omitempty"`
	Elements                        []string       `yaml:"elements,omitempty"`
	UpperBounds                     map[string]int `yaml:"upperBounds,omitempty"`
}

// Scorer types
const (
	MassDeviationScorer           = "massDeviation"
	MassDifferenceDeviationScorer = "massDifferenceDeviation"
	NormalIntensityScorer         = "normalIntensity"
	LogNormIntensityScorer        = "logNormIntensity"
)

// Intensity dependency types
const (
	FixedDependency           = "fixed"
	LinearDependency          = "linear"
	PiecewiseLinearDependency = "piecewiseLinear"
)

// ExtractAll is the only pattern extractor
const ExtractAll = "extractAll"

var (
	// ErrUnknownScorer is returned for unsupported scorer types
	ErrUnknownScorer = errors.New("config: unknown scorer")
	// ErrUnknownDependency is returned for unsupported dependency types
	ErrUnknownDependency = errors.New("config: unknown intensity dependency")
	// ErrUnknownExtractor is returned for unsupported pattern extractors
	ErrUnknownExtractor = errors.New("config: unknown pattern extractor")
)

// Default returns the configuration of the default analyzer
func Default() Config {
	p := profile.Default()
	return Config{
		Cutoff:          0.01,
		IntensityOffset: 0,
		Extractor:       ExtractAll,
		Scorers: []ScorerConfig{
			{
				Type: MassDeviationScorer,
				Dependency: &DependencyConfig{
					Type:        PiecewiseLinearDependency,
					Breakpoints: []float64{0.15, 0.05},
					Values:      []float64{1.0, 1.5},
				},
			},
			{
				Type: LogNormIntensityScorer,
				Dependency: &DependencyConfig{
					Type:        PiecewiseLinearDependency,
					Breakpoints: []float64{1.0, 0.3, 0.15, 0.03},
					Values:      []float64{0.7, 0.6, 0.8, 0.5},
				},
			},
		},
		Generator: GeneratorConfig{
			MaxPeaks:       10,
			MinProbability: 1e-3,
		},
		Profile: FromProfile(p),
	}
}

// Load reads a YAML config file on top of the defaults and applies
// environment variable overrides. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		defer f.Close()
		if err := decode(f, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Parse reads a YAML config on top of the defaults
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := decode(r, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Export writes cfg as YAML. The isotope subset is restricted to the
// elements of the profile.
func Export(w io.Writer, cfg Config) error {
	if len(cfg.Profile.Elements) > 0 {
		cfg.Isotopes = append([]string(nil), cfg.Profile.Elements...)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

// applyEnvOverrides lets MZISOTOPE_CUTOFF, MZISOTOPE_INTENSITY_OFFSET and
// MZISOTOPE_PPM override file values
func applyEnvOverrides(cfg *Config) error {
	if v, ok := os.LookupEnv("MZISOTOPE_CUTOFF"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MZISOTOPE_CUTOFF: %w", err)
		}
		cfg.Cutoff = f
	}
	if v, ok := os.LookupEnv("MZISOTOPE_INTENSITY_OFFSET"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MZISOTOPE_INTENSITY_OFFSET: %w", err)
		}
		cfg.IntensityOffset = f
	}
	if v, ok := os.LookupEnv("MZISOTOPE_PPM"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MZISOTOPE_PPM: %w", err)
		}
		d := ms.NewDeviation(f)
		cfg.Profile.AllowedMassDeviation = &d
	}
	return nil
}

// FromProfile converts a measurement profile to its configuration
func FromProfile(p profile.MeasurementProfile) ProfileConfig {
	pc := ProfileConfig{
		AllowedMassDeviation:            p.AllowedMassDeviation,
		StandardMs1MassDeviation:        p.StandardMs1MassDeviation,
		StandardMs2MassDeviation:        p.StandardMs2MassDeviation,
		StandardMassDifferenceDeviation: p.StandardMassDifferenceDeviation,
		IntensityDeviation:              p.IntensityDeviation,
		MedianNoiseIntensity:            p.MedianNoiseIntensity,
	}
	if p.Constraints != nil {
		pc.Elements = p.Constraints.Alphabet().Symbols()
		pc.UpperBounds = p.Constraints.UpperBounds()
	}
	return pc
}

// Profile converts the configuration to a measurement profile. Upper
// bounds of elements that are not in Elements are ignored.
func (pc ProfileConfig) Profile() (profile.MeasurementProfile, error) {
	p := profile.MeasurementProfile{
		AllowedMassDeviation:            pc.AllowedMassDeviation,
		StandardMs1MassDeviation:        pc.StandardMs1MassDeviation,
		StandardMs2MassDeviation:        pc.StandardMs2MassDeviation,
		StandardMassDifferenceDeviation: pc.StandardMassDifferenceDeviation,
		IntensityDeviation:              pc.IntensityDeviation,
		MedianNoiseIntensity:            pc.MedianNoiseIntensity,
	}
	if len(pc.Elements) > 0 {
		alphabet, err := chem.NewAlphabet(chem.DefaultTable(), pc.Elements...)
		if err != nil {
			return profile.MeasurementProfile{}, fmt.Errorf("profile elements: %w", err)
		}
		bounds := make(map[string]int, len(pc.UpperBounds))
		for sym, n := range pc.UpperBounds {
			if alphabet.Contains(sym) {
				bounds[sym] = n
			}
		}
		c, err := chem.NewConstraints(alphabet, bounds)
		if err != nil {
			return profile.MeasurementProfile{}, fmt.Errorf("profile upper bounds: %w", err)
		}
		p.Constraints = &c
	}
	return profile.Merge(profile.MeasurementProfile{}, p), nil
}
