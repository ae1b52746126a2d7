package fees

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchDurationSeconds tracks venue fee fetch latency.
	FetchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cex_arb_fees_fetch_duration_seconds",
		Help:    "Duration of bulk fee fetches from venue APIs",
		Buckets: prometheus.DefBuckets,
	})

	// RefreshesTotal counts successful fee schedule refreshes.
	RefreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cex_arb_fees_refreshes_total",
		Help: "Total number of successful fee schedule refreshes",
	})

	// SymbolsCachedGauge tracks symbols cached by the last refresh.
	SymbolsCachedGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cex_arb_fees_symbols_cached",
		Help: "Number of symbols cached by the last fee refresh",
	})

	// FetchErrorsTotal tracks fee fetch failures.
	FetchErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cex_arb_fees_fetch_errors_total",
		Help: "Total number of fee fetch errors",
	})

	// CacheHitsTotal tracks cache hits for fee schedules.
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cex_arb_fees_cache_hits_total",
		Help: "Total number of fee schedule cache hits",
	})

	// CacheMissesTotal tracks cache misses for fee schedules.
	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cex_arb_fees_cache_misses_total",
		Help: "Total number of fee schedule cache misses",
	})
)
