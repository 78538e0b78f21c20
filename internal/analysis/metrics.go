package analysis

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/524D/mzisotope/internal/decomp"
)

// Metrics holds the Prometheus collectors of an analyzer. A nil *Metrics
// records nothing.
type Metrics struct {
	AnalysesTotal           prometheus.Counter
	PatternsExtractedTotal  prometheus.Counter
	FormulasScoredTotal     prometheus.Counter
	FormulasRejectedTotal   prometheus.Counter
	UnscorablePatternsTotal prometheus.Counter
}

// NewMetrics creates the analyzer metrics and registers them on reg. If
// cache is not nil, its hit and miss counts are exported as well.
func NewMetrics(reg prometheus.Registerer, cache *decomp.Cache) (*Metrics, error) {
	m := &Metrics{
		AnalysesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mzisotope_analyses_total",
			Help: "Total number of isotope patterns analyzed.",
		}),
		PatternsExtractedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mzisotope_patterns_extracted_total",
			Help: "Total number of isotope pattern candidates extracted from spectra.",
		}),
		FormulasScoredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mzisotope_formulas_scored_total",
			Help: "Total number of formula candidates scored.",
		}),
		FormulasRejectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mzisotope_formulas_rejected_total",
			Help: "Total number of formula candidates scored as -Inf.",
		}),
		UnscorablePatternsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mzisotope_unscorable_patterns_total",
			Help: "Total number of patterns whose monoisotopic peak is below the cutoff.",
		}),
	}
	collectors := []prometheus.Collector{
		m.AnalysesTotal,
		m.PatternsExtractedTotal,
		m.FormulasScoredTotal,
		m.FormulasRejectedTotal,
		m.UnscorablePatternsTotal,
	}
	if cache != nil {
		collectors = append(collectors,
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Name: "mzisotope_decomposer_cache_hits_total",
				Help: "Total number of decomposer engine lookups served from the cache.",
			}, func() float64 {
				hits, _ := cache.Stats()
				return float64(hits)
			}),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Name: "mzisotope_decomposer_cache_misses_total",
				Help: "Total number of decomposer engines built.",
			}, func() float64 {
				_, misses := cache.Stats()
				return float64(misses)
			}),
		)
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) analysis() {
	if m != nil {
		m.AnalysesTotal.Inc()
	}
}

func (m *Metrics) extracted(n int) {
	if m != nil {
		m.PatternsExtractedTotal.Add(float64(n))
	}
}

func (m *Metrics) scored(n, rejected int) {
	if m != nil {
		m.FormulasScoredTotal.Add(float64(n))
		m.FormulasRejectedTotal.Add(float64(rejected))
	}
}

func (m *Metrics) unscorable() {
	if m != nil {
		m.UnscorablePatternsTotal.Inc()
	}
}
