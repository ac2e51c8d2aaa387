package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "airwater"

// Metrics holds the Prometheus counters and histograms for pipeline runs.
type Metrics struct {
	Runs         *prometheus.CounterVec   // labels: dataset={air,water}
	RunDuration  *prometheus.HistogramVec // labels: dataset
	RowsDropped  *prometheus.CounterVec   // labels: dataset
	CacheLookups *prometheus.CounterVec   // labels: dataset, result={hit,miss}
	ModelOutcome *prometheus.CounterVec   // labels: model={resample,forecast,anomaly}, outcome={ok,unavailable}
}

func newMetrics() *Metrics {
	return &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by dataset.",
		}, []string{"dataset"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete filter, resample and model run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"dataset"}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Rows discarded while loading a dataset.",
		}, []string{"dataset"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Table cache lookups by dataset and result.",
		}, []string{"dataset", "result"}),
		ModelOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_outcomes_total",
			Help:      "Resample, forecast and anomaly outcomes.",
		}, []string{"model", "outcome"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.Runs, m.RunDuration, m.RowsDropped, m.CacheLookups, m.ModelOutcome}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered on a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() (*Metrics, *prometheus.Registry) {
	m := newMetrics()
	reg := prometheus.NewRegistry()
	reg.MustRegister(m.collectors()...)
	return m, reg
}

// CacheResult returns the label value for a cache lookup.
func CacheResult(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
