package circuitbreaker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StateGauge tracks the breaker state per exchange
	// (0=closed, 1=open, 2=half-open).
	StateGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cex_arb_breaker_state",
		Help: "Circuit breaker state per exchange (0=closed, 1=open, 2=half-open)",
	}, []string{"exchange"})

	// OpensTotal tracks how often each breaker opened.
	OpensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cex_arb_breaker_opens_total",
		Help: "Total number of times the circuit breaker opened per exchange",
	}, []string{"exchange"})

	// RejectionsTotal tracks polls skipped because the breaker was open.
	RejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cex_arb_breaker_rejections_total",
		Help: "Total number of polls rejected by an open breaker per exchange",
	}, []string{"exchange"})
)
