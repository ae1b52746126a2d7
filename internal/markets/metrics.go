package markets

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RefreshesTotal tracks discovery refresh passes.
	RefreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cex_arb_markets_refreshes_total",
		Help: "Total number of market discovery refresh passes",
	})

	// RefreshErrorsTotal tracks per-venue listing fetch failures.
	RefreshErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cex_arb_markets_refresh_errors_total",
		Help: "Total number of per-venue market listing fetch failures",
	}, []string{"exchange"})

	// RefreshDurationSeconds tracks how long a full refresh takes.
	RefreshDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cex_arb_markets_refresh_duration_seconds",
		Help:    "Duration of market discovery refresh passes",
		Buckets: prometheus.DefBuckets,
	})

	// IntersectionSize tracks the size of the installed symbol universe.
	IntersectionSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cex_arb_markets_intersection_size",
		Help: "Canonical symbols listed on at least two exchanges",
	})

	// VenueMarketsGauge tracks USDT listings per venue.
	VenueMarketsGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cex_arb_markets_venue_listings",
		Help: "USDT spot listings fetched per venue on the last refresh",
	}, []string{"exchange"})
)
