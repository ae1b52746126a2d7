package arbitrage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EvaluationsTotal counts completed evaluation ticks.
	EvaluationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cex_arb_evaluations_total",
		Help: "Total number of completed arbitrage evaluation ticks",
	})

	// EvaluationDurationSeconds tracks how long one full evaluation takes.
	EvaluationDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cex_arb_evaluation_duration_seconds",
		Help:    "Duration of a full arbitrage evaluation tick",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})

	// OpportunitiesTotal counts opportunities that passed the spread gates.
	OpportunitiesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cex_arb_opportunities_total",
		Help: "Total number of net-positive opportunities detected",
	})

	// ActiveOpportunities tracks the size of the latest ranking.
	ActiveOpportunities = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cex_arb_active_opportunities",
		Help: "Number of opportunities in the latest ranking",
	})

	// StableOpportunities tracks how many of those are flagged stable.
	StableOpportunities = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cex_arb_stable_opportunities",
		Help: "Number of stable opportunities in the latest ranking",
	})

	// EvaluationErrorsTotal counts per-symbol evaluation panics.
	EvaluationErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cex_arb_evaluation_errors_total",
		Help: "Total number of symbol evaluations aborted by a panic",
	})

	// IdentitySplitsTotal counts identity-filter splits by mode.
	IdentitySplitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cex_arb_identity_splits_total",
		Help: "Total number of symbol groups split by the identity filter, by mode",
	}, []string{"mode"})

	// PublishErrorsTotal counts failed publishes of a finished ranking.
	PublishErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cex_arb_engine_publish_errors_total",
		Help: "Total number of failed ranking publishes",
	})
)
