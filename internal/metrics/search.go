package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Query outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// SearchMetrics collects query and rebuild telemetry from the engine.
type SearchMetrics struct {
	queryDuration   *prometheus.HistogramVec
	queriesTotal    *prometheus.CounterVec
	queryResults    prometheus.Histogram
	rebuildDuration prometheus.Histogram
	rebuildsTotal   prometheus.Counter
	passagesLoaded  prometheus.Gauge
}

var (
	searchMetrics     *SearchMetrics
	searchMetricsOnce sync.Once
)

// NewSearchMetrics builds the search collectors and registers them on the
// default registry. Repeated calls return the same instance.
func NewSearchMetrics() *SearchMetrics {
	searchMetricsOnce.Do(func() {
		m := &SearchMetrics{
			queryDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: namespace,
					Name:      "query_duration_seconds",
					Help:      "Hybrid query duration in seconds",
					Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
				},
				[]string{"outcome"},
			),
			queriesTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespace,
					Name:      "queries_total",
					Help:      "Total number of hybrid queries",
				},
				[]string{"outcome"},
			),
			queryResults: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: namespace,
					Name:      "query_results",
					Help:      "Results returned per successful query",
					Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
				},
			),
			rebuildDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: namespace,
					Name:      "rebuild_duration_seconds",
					Help:      "Corpus rebuild duration in seconds",
					Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
				},
			),
			rebuildsTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: namespace,
					Name:      "rebuilds_total",
					Help:      "Total number of corpus rebuilds",
				},
			),
			passagesLoaded: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Namespace: namespace,
					Name:      "passages_loaded",
					Help:      "Passages in the current corpus generation",
				},
			),
		}
		prometheus.MustRegister(
			m.queryDuration,
			m.queriesTotal,
			m.queryResults,
			m.rebuildDuration,
			m.rebuildsTotal,
			m.passagesLoaded,
		)
		searchMetrics = m
	})
	return searchMetrics
}

// ObserveQuery records one query's outcome, result count, and latency.
func (m *SearchMetrics) ObserveQuery(outcome string, results int, latency time.Duration) {
	m.queriesTotal.WithLabelValues(outcome).Inc()
	m.queryDuration.WithLabelValues(outcome).Observe(latency.Seconds())
	if outcome == OutcomeOK {
		m.queryResults.Observe(float64(results))
	}
}

// ObserveRebuild records a completed corpus rebuild.
func (m *SearchMetrics) ObserveRebuild(passages int, latency time.Duration) {
	m.rebuildsTotal.Inc()
	m.rebuildDuration.Observe(latency.Seconds())
	m.passagesLoaded.Set(float64(passages))
}
