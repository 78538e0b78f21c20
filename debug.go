// This file contains code to help debugging, and is
// separated in from the rest in order not to litter
// the main code with debugging stuff

package main

import (
	"math"

	"go.uber.org/zap"

	"github.com/524D/mzisotope/internal/analysis"
	"github.com/524D/mzisotope/internal/experiment"
)

// Number of candidates shown per pattern in debug output
const debugCandidates = 3

func debugEnabled(i int, par *params) bool {
	return par.debug && i >= par.minDebugIdx && i <= par.maxDebugIdx
}

func debugLogExperiment(logger *zap.Logger, i int, numExps int, exp *experiment.Experiment,
	patterns []analysis.IsotopePattern, par *params) {
	if !debugEnabled(i, par) {
		return
	}
	logger.Info("debug experiment",
		zap.Int("index", i),
		zap.Int("of", numExps),
		zap.String("name", exp.Name),
		zap.Stringer("ion", exp.IonType),
		zap.Float64("ionMass", exp.IonMass),
		zap.Float64("rt", exp.RetentionTime),
		zap.Int("ms1", len(exp.MS1)),
		zap.Int("patterns", len(patterns)))
	for j, p := range patterns {
		mz := make([]float64, len(p.Pattern))
		intens := make([]float64, len(p.Pattern))
		for k, peak := range p.Pattern {
			mz[k] = peak.Mz
			intens[k] = peak.Intens
		}
		fields := []zap.Field{
			zap.Int("pattern", j),
			zap.Float64s("mz", mz),
			zap.Float64s("intensity", intens),
		}
		if p.IsScored() {
			fields = append(fields, zap.Int("candidates", len(p.Candidates)))
			for k := 0; k < len(p.Candidates) && k < debugCandidates; k++ {
				c := p.Candidates[k]
				fields = append(fields, zap.Float64(c.Value.String(), c.Score))
			}
		}
		logger.Info("debug pattern", fields...)
	}
}

// debugListUnscored lists experiments in the debug range for which no
// pattern has an acceptable candidate
func debugListUnscored(logger *zap.Logger, results []analysis.Result, par *params) {
	for i, r := range results {
		if !debugEnabled(i, par) {
			continue
		}
		found := false
		for _, p := range r.Patterns {
			if best, ok := p.Best(); ok && !math.IsInf(best.Score, 0) {
				found = true
				break
			}
		}
		if !found {
			logger.Info("debug no candidates",
				zap.Int("index", i),
				zap.String("name", r.Experiment.Name))
		}
	}
}
