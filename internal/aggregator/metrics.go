package aggregator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WorkerRestartsTotal tracks backoff restarts of adapter workers.
	WorkerRestartsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cex_arb_aggregator_worker_restarts_total",
		Help: "Total number of adapter poll failures that triggered a backoff restart",
	}, []string{"exchange"})

	// IntakeDepth tracks the current fill of the intake channel.
	IntakeDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cex_arb_aggregator_intake_depth",
		Help: "Number of quotes waiting in the intake channel",
	})

	// BatchesAppliedTotal tracks batches flushed to the store.
	BatchesAppliedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cex_arb_aggregator_batches_applied_total",
		Help: "Total number of quote batches applied to the store",
	})
)
