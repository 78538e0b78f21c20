package analysis

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/524D/mzisotope/internal/experiment"
	"github.com/524D/mzisotope/internal/profile"
)

// Result holds the scored patterns of one experiment
type Result struct {
	Experiment *experiment.Experiment
	Patterns   []IsotopePattern
}

// DeisotopeAll analyzes independent experiments on up to workers
// goroutines. Experiments with a precursor m/z are analyzed at that m/z,
// the others untargeted. Results are in the order of exps. The first error
// cancels the remaining experiments.
func (a *Analyzer) DeisotopeAll(ctx context.Context, exps []*experiment.Experiment, p *profile.MeasurementProfile,
	workers int) ([]Result, error) {
	results := make([]Result, len(exps))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, exp := range exps {
		i, exp := i, exp
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var patterns []IsotopePattern
			var err error
			if exp.IonMass > 0 {
				patterns, err = a.DeisotopeAt(exp, exp.IonMass, p)
			} else {
				patterns, err = a.Deisotope(exp, p)
			}
			if err != nil {
				return fmt.Errorf("experiment %s: %w", exp.Name, err)
			}
			a.logger.Debug("experiment analyzed",
				zap.String("name", exp.Name),
				zap.Int("patterns", len(patterns)))
			results[i] = Result{Experiment: exp, Patterns: patterns}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
