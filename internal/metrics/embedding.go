package metrics

import "github.com/prometheus/client_golang/prometheus"

var embedCacheRegistered bool

// RegisterEmbedCache exposes an embedding cache's hit and miss counters.
// stats must be safe for concurrent use. Call once from main.
func RegisterEmbedCache(stats func() (hits, misses uint64)) {
	if embedCacheRegistered {
		return
	}
	prometheus.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_hits_total",
			Help:      "Embedding cache hits",
		},
		func() float64 {
			h, _ := stats()
			return float64(h)
		},
	))
	prometheus.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_misses_total",
			Help:      "Embedding cache misses",
		},
		func() float64 {
			_, m := stats()
			return float64(m)
		},
	))
	embedCacheRegistered = true
}
