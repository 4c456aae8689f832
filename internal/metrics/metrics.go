package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SearchRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "subsearch",
		Name:      "search_requests_total",
		Help:      "Total search operations by operation and outcome.",
	}, []string{"op", "status"})

	SearchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "subsearch",
		Name:      "search_duration_seconds",
		Help:      "Search operation duration in seconds.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.3, 0.5, 1, 2, 5},
	}, []string{"op"})

	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "subsearch",
		Name:      "cache_hits_total",
		Help:      "Total number of result cache hits.",
	})

	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "subsearch",
		Name:      "cache_misses_total",
		Help:      "Total number of result cache misses.",
	})

	PlanFallbacksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "subsearch",
		Name:      "plan_fallbacks_total",
		Help:      "Searches that bypassed the coverage index because it was unhealthy.",
	})

	HydrationBatchFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "subsearch",
		Name:      "hydration_batch_failures_total",
		Help:      "Hydration batch fetches that failed and were degraded to empty data.",
	})

	CoverageRepairRows = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "subsearch",
		Name:      "coverage_repair_rows_total",
		Help:      "Coverage index rows written by repair passes.",
	})

	TermsIndexedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "subsearch",
		Name:      "terms_indexed_total",
		Help:      "Autocomplete term upserts performed by the extractor.",
	})
)

// Register installs all collectors on the given registerer.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		SearchRequestsTotal,
		SearchDuration,
		CacheHitsTotal,
		CacheMissesTotal,
		PlanFallbacksTotal,
		HydrationBatchFailures,
		CoverageRepairRows,
		TermsIndexedTotal,
	)
}
