// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/524D/mzisotope/internal/analysis"
	"github.com/524D/mzisotope/internal/chem"
	"github.com/524D/mzisotope/internal/config"
	"github.com/524D/mzisotope/internal/decomp"
	"github.com/524D/mzisotope/internal/experiment"
	"github.com/524D/mzisotope/internal/mgf"
	"github.com/524D/mzisotope/internal/mzml"
	"github.com/524D/mzisotope/internal/profile"
)

// Program name and version, written to the JSON output
const progName = "mzIsotope"

var progVersion = `Unknown`

// Format of output, if it ever changes we should still be able to parse
// output from old versions
const outputFormatVersion = "1.0"

const (
	infoDefault = iota
	infoSilent
	infoVerbose
)

// Command line parameters
type params struct {
	configFilename string  // YAML analyzer configuration
	outFilename    string  // JSON output, stdout if empty
	ion            string  // Precursor ion type that overrides the input file
	ppm            float64 // Allowed mass deviation, 0 keeps the configured value
	cutoff         float64 // Minimal relative intensity of scored peaks
	top            int     // Number of candidates per pattern in the output, <1 means all
	workers        int     // Number of experiments analyzed in parallel
	debugExps      string  // Print debug output for given experiment range
	minDebugIdx    int
	maxDebugIdx    int
	debug          bool
	stats          bool // Log analyzer counters when done
	quiet          bool
	verbose        bool
	verbosity      int // Verbosity of progress messages (infoDefault...)
}

var (
	// ErrRangeSpec means a range argument could not be parsed
	ErrRangeSpec = errors.New("invalid range specified")
	// ErrUnknownFormat means the input file extension is not recognized
	ErrUnknownFormat = errors.New("unknown input format")
)

// Parse string like "-12:6" into 2 values, -12 and 6
// Parameters min and max are the "default" min/max values,
// when a value is not specified (e.g. "-12:"), the default is assigned
func parseIntRange(r string, min int, max int) (int, int, error) {
	re := regexp.MustCompile(`^\s*(\-?\d*):(\-?\d*)\s*$`)
	m := re.FindStringSubmatch(r)
	if m == nil {
		// A single number selects one item
		n, err := strconv.Atoi(strings.TrimSpace(r))
		if err != nil {
			return min, max, fmt.Errorf("%w: %q", ErrRangeSpec, r)
		}
		m = []string{r, strconv.Itoa(n), strconv.Itoa(n)}
	}
	minOut := min
	maxOut := max
	if m[1] != "" {
		minOut, _ = strconv.Atoi(m[1])
		if minOut < min {
			minOut = min
		}
	}
	if m[2] != "" {
		maxOut, _ = strconv.Atoi(m[2])
		if maxOut > max {
			maxOut = max
		}
	}
	var err error
	if minOut > maxOut {
		err = ErrRangeSpec
		minOut = maxOut
	}
	return minOut, maxOut, err
}

// sanatizeParams checks parameters that cobra can't check by itself
func sanatizeParams(par *params) error {
	par.verbosity = infoDefault
	if par.verbose {
		par.verbosity = infoVerbose
	}
	if par.quiet {
		par.verbosity = infoSilent
	}
	if par.debugExps != "" {
		var err error
		par.minDebugIdx, par.maxDebugIdx, err = parseIntRange(par.debugExps, 0, math.MaxInt32)
		if err != nil {
			return fmt.Errorf("invalid value for parameter 'debug': %w", err)
		}
		par.debug = true
	}
	if par.ppm < 0 {
		return fmt.Errorf("invalid value for parameter 'ppm': %g", par.ppm)
	}
	if par.workers < 1 {
		par.workers = 1
	}
	return nil
}

// newLogger writes console formatted messages to w at the level that
// belongs to the verbosity
func newLogger(w io.Writer, verbosity int) *zap.Logger {
	level := zapcore.InfoLevel
	switch verbosity {
	case infoSilent:
		level = zapcore.ErrorLevel
	case infoVerbose:
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core).Named(strings.ToLower(progName))
}

// session holds everything a subcommand needs
type session struct {
	par      *params
	logger   *zap.Logger
	registry *prometheus.Registry
	analyzer *analysis.Analyzer
	source   string
	exps     []*experiment.Experiment
}

func newSession(cmd *cobra.Command, par *params, filename string) (*session, error) {
	if err := sanatizeParams(par); err != nil {
		return nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), par.verbosity)

	cfg := config.Default()
	if par.configFilename != "" {
		c, err := config.Load(par.configFilename)
		if err != nil {
			return nil, err
		}
		cfg = *c
	}
	if cmd.Flags().Changed("cutoff") {
		cfg.Cutoff = par.cutoff
	}

	registry := prometheus.NewRegistry()
	cache := decomp.NewCache()
	metrics, err := analysis.NewMetrics(registry, cache)
	if err != nil {
		return nil, err
	}
	analyzer, err := cfg.Analyzer(
		analysis.WithLogger(logger),
		analysis.WithMetrics(metrics),
		analysis.WithDecomposer(cache),
	)
	if err != nil {
		return nil, err
	}

	exps, err := readExperiments(filename)
	if err != nil {
		return nil, err
	}
	if par.ion != "" {
		ionType, err := chem.PrecursorIonTypeByName(par.ion)
		if err != nil {
			return nil, err
		}
		for _, exp := range exps {
			exp.IonType = ionType
		}
	}
	logger.Info("input read",
		zap.String("file", filename),
		zap.Int("experiments", len(exps)))

	return &session{
		par:      par,
		logger:   logger,
		registry: registry,
		analyzer: analyzer,
		source:   filepath.Base(filename),
		exps:     exps,
	}, nil
}

// readExperiments reads an mzML or MGF file, depending on its extension
func readExperiments(filename string) ([]*experiment.Experiment, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	source := filepath.Base(filename)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mzml":
		mzML, err := mzml.Read(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
		return mzML.Experiments(source)
	case ".mgf":
		return mgf.ReadExperiments(f, source)
	default:
		return nil, fmt.Errorf("%w: %s (expected .mzML or .mgf)", ErrUnknownFormat, source)
	}
}

// profileOverride returns the profile given on the command line, or nil
func (s *session) profileOverride() *profile.MeasurementProfile {
	if s.par.ppm == 0 {
		return nil
	}
	return &profile.MeasurementProfile{AllowedMassDeviation: profile.Deviation(s.par.ppm)}
}

func (s *session) extract() []analysis.Result {
	results := make([]analysis.Result, len(s.exps))
	for i, exp := range s.exps {
		var patterns []analysis.IsotopePattern
		if exp.IonMass > 0 {
			patterns = s.analyzer.ExtractPatternsAt(exp, exp.IonMass, false)
		} else {
			patterns = s.analyzer.ExtractPatterns(exp)
		}
		results[i] = analysis.Result{Experiment: exp, Patterns: patterns}
		debugLogExperiment(s.logger, i, len(s.exps), exp, patterns, s.par)
	}
	return results
}

func (s *session) analyze(ctx context.Context) ([]analysis.Result, error) {
	results, err := s.analyzer.DeisotopeAll(ctx, s.exps, s.profileOverride(), s.par.workers)
	if err != nil {
		return nil, err
	}
	for i, r := range results {
		debugLogExperiment(s.logger, i, len(results), r.Experiment, r.Patterns, s.par)
	}
	debugListUnscored(s.logger, results, s.par)
	return results, nil
}

// logStats logs the analyzer counters
func (s *session) logStats() {
	families, err := s.registry.Gather()
	if err != nil {
		s.logger.Error("gathering metrics", zap.Error(err))
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			s.logger.Info("counter",
				zap.String("name", mf.GetName()),
				zap.Float64("value", m.GetCounter().GetValue()))
		}
	}
}

type peakJSON struct {
	Mz        float64 `json:"mz"`
	Intensity float64 `json:"intensity"`
}

type candidateJSON struct {
	Formula string  `json:"formula"`
	Score   float64 `json:"score"`
}

type patternJSON struct {
	MonoisotopicMz float64         `json:"monoisotopicMz"`
	Peaks          []peakJSON      `json:"peaks"`
	Candidates     []candidateJSON `json:"candidates,omitempty"`
}

type experimentJSON struct {
	Name          string        `json:"name"`
	IonMass       float64       `json:"ionMass,omitempty"`
	IonType       string        `json:"ionType"`
	RetentionTime float64       `json:"retentionTime,omitempty"`
	Patterns      []patternJSON `json:"patterns"`
}

type outputJSON struct {
	Program             string           `json:"program"`
	Version             string           `json:"version"`
	OutputFormatVersion string           `json:"outputFormatVersion"`
	Source              string           `json:"source"`
	Experiments         []experimentJSON `json:"experiments"`
}

// toJSON converts the results. Rejected candidates (infinite scores)
// can't be represented in JSON and are left out.
func toJSON(source string, results []analysis.Result, top int) outputJSON {
	out := outputJSON{
		Program:             progName,
		Version:             progVersion,
		OutputFormatVersion: outputFormatVersion,
		Source:              source,
		Experiments:         make([]experimentJSON, 0, len(results)),
	}
	for _, r := range results {
		e := experimentJSON{
			Name:          r.Experiment.Name,
			IonMass:       r.Experiment.IonMass,
			IonType:       r.Experiment.IonType.String(),
			RetentionTime: r.Experiment.RetentionTime,
			Patterns:      make([]patternJSON, 0, len(r.Patterns)),
		}
		for _, p := range r.Patterns {
			pj := patternJSON{MonoisotopicMz: p.MonoisotopicMass()}
			for _, peak := range p.Pattern {
				pj.Peaks = append(pj.Peaks, peakJSON{Mz: peak.Mz, Intensity: peak.Intens})
			}
			for _, c := range p.Candidates {
				if top > 0 && len(pj.Candidates) >= top {
					break
				}
				if math.IsInf(c.Score, 0) || math.IsNaN(c.Score) {
					continue
				}
				pj.Candidates = append(pj.Candidates, candidateJSON{Formula: c.Value.String(), Score: c.Score})
			}
			e.Patterns = append(e.Patterns, pj)
		}
		out.Experiments = append(out.Experiments, e)
	}
	return out
}

func writeResults(w io.Writer, par *params, out outputJSON) error {
	if par.outFilename != "" {
		f, err := os.Create(par.outFilename)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	e := json.NewEncoder(w)
	e.SetIndent(``, `  `) // Make output easier to read for humans
	return e.Encode(out)
}

func newExtractCmd(par *params) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the isotope patterns found in an mzML or MGF file",
		Long: `Extract isotope patterns from the MS1 spectra of every experiment.
Experiments with a precursor m/z are searched at that m/z, the others
are deisotoped untargeted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, par, args[0])
			if err != nil {
				return err
			}
			results := s.extract()
			if par.stats {
				s.logStats()
			}
			return writeResults(cmd.OutOrStdout(), par, toJSON(s.source, results, 0))
		},
	}
}

func newAnalyzeCmd(par *params) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Rank molecular formulas by their isotope pattern",
		Long: `Extract isotope patterns and rank the molecular formulas that fit
the monoisotopic mass by how well their simulated isotope pattern matches
the measured one. If the ion type is unknown, all common adducts of the
charge are tried.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, par, args[0])
			if err != nil {
				return err
			}
			results, err := s.analyze(cmd.Context())
			if err != nil {
				return err
			}
			if par.stats {
				s.logStats()
			}
			return writeResults(cmd.OutOrStdout(), par, toJSON(s.source, results, par.top))
		},
	}
	cmd.Flags().IntVar(&par.top, "top", 5,
		"number of candidates per pattern in the output, 0 means all")
	cmd.Flags().IntVar(&par.workers, "workers", runtime.NumCPU(),
		"number of experiments analyzed in parallel")
	cmd.Flags().Float64Var(&par.ppm, "ppm", 0,
		"allowed mass deviation in ppm (default: from configuration)")
	return cmd
}

func newRootCmd() *cobra.Command {
	var par params
	root := &cobra.Command{
		Use:   "mzisotope",
		Short: "Isotope pattern extraction and molecular formula scoring",
		Long: `mzisotope extracts isotope patterns from mzML or MGF files and scores
molecular formula candidates against them.

ENVIRONMENT VARIABLES:
    MZISOTOPE_CUTOFF, MZISOTOPE_INTENSITY_OFFSET and MZISOTOPE_PPM override
    the values of the configuration file.`,
		Version:       progVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&par.configFilename, "config", "",
		"YAML analyzer configuration `file`")
	pf.StringVarP(&par.outFilename, "out", "o", "",
		"`filename` of JSON output (default: standard output)")
	pf.StringVar(&par.ion, "ion", "",
		"precursor ion type, e.g. [M+H]+ (default: from input file)")
	pf.Float64Var(&par.cutoff, "cutoff", analysis.DefaultCutoff,
		"minimal relative intensity of scored peaks")
	pf.StringVar(&par.debugExps, "debug", "",
		"Print debug output for given experiment `range` e.g. 3:6")
	pf.BoolVar(&par.stats, "stats", false,
		"log analyzer counters when done")
	pf.BoolVarP(&par.verbose, "verbose", "v", false,
		"Print more verbose progress information")
	pf.BoolVarP(&par.quiet, "quiet", "q", false,
		"Don't print any output except for errors")

	root.AddCommand(newExtractCmd(&par), newAnalyzeCmd(&par))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", progName, err)
		stop()
		os.Exit(1)
	}
}
