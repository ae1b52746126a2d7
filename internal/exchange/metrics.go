package exchange

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PollsTotal tracks ticker polls per venue.
	PollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cex_arb_exchange_polls_total",
			Help: "Total number of ticker polls per exchange",
		},
		[]string{"exchange"},
	)

	// PollErrorsTotal tracks failed polls per venue.
	PollErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cex_arb_exchange_poll_errors_total",
			Help: "Total number of failed ticker polls per exchange",
		},
		[]string{"exchange"},
	)

	// PollDurationSeconds tracks ticker poll latency per venue.
	PollDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cex_arb_exchange_poll_duration_seconds",
			Help:    "Duration of ticker poll requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"exchange"},
	)

	// QuotesEmittedTotal tracks normalized quotes emitted per venue.
	QuotesEmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cex_arb_exchange_quotes_emitted_total",
			Help: "Total number of normalized quotes emitted per exchange",
		},
		[]string{"exchange"},
	)

	// ParseFailuresTotal tracks ticker rows dropped as malformed per venue.
	ParseFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cex_arb_exchange_parse_failures_total",
			Help: "Total number of malformed ticker rows dropped",
		},
		[]string{"exchange"},
	)

	// UnmappedSymbolsTotal tracks quotes dropped because the venue symbol
	// has no canonical mapping.
	UnmappedSymbolsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cex_arb_exchange_unmapped_symbols_total",
			Help: "Total number of quotes dropped for lack of a symbol mapping",
		},
		[]string{"exchange"},
	)
)
