package quotes

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QuotesDroppedTotal tracks quotes discarded before or at the store,
	// by reason (older_timestamp, channel_full).
	QuotesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cex_arb_quotes_dropped_total",
			Help: "Total number of quotes dropped, by exchange and reason",
		},
		[]string{"exchange", "reason"},
	)

	// StoreSize tracks the number of (exchange, symbol) entries in the store.
	StoreSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cex_arb_quotes_store_size",
		Help: "Number of (exchange, symbol) entries in the quote store",
	})

	// BatchSize tracks the size of applied upsert batches.
	BatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cex_arb_quotes_batch_size",
		Help:    "Size of quote batches applied to the store",
		Buckets: []float64{1, 5, 10, 25, 50, 100},
	})

	// LockWaitSeconds tracks how long the batch writer waited for the
	// store lock.
	LockWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cex_arb_quotes_lock_wait_seconds",
		Help:    "Time the batch writer spent waiting for the store lock",
		Buckets: []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01, 0.1},
	})

	// ConnectedGauge tracks the connected flag per exchange.
	ConnectedGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cex_arb_exchange_connected",
		Help: "Whether the exchange returned its last poll successfully",
	}, []string{"exchange"})

	// StatusErrorsTotal tracks recorded poll errors per exchange.
	StatusErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cex_arb_exchange_errors_total",
		Help: "Total number of poll errors recorded per exchange",
	}, []string{"exchange"})
)
