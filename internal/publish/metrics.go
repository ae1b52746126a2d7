package publish

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PublishesTotal counts successful snapshot deliveries per sink.
	PublishesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cex_arb_publishes_total",
		Help: "Total number of snapshots delivered, by sink",
	}, []string{"sink"})

	// PublishErrorsTotal counts failed deliveries per sink.
	PublishErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cex_arb_publish_errors_total",
		Help: "Total number of failed snapshot deliveries, by sink",
	}, []string{"sink"})

	// NotificationsSentTotal counts Telegram messages actually sent.
	NotificationsSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cex_arb_notifications_sent_total",
		Help: "Total number of Telegram notifications sent",
	})

	// NotificationsSkippedTotal counts suppressed notifications by reason.
	NotificationsSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cex_arb_notifications_skipped_total",
		Help: "Total number of Telegram notifications suppressed, by reason",
	}, []string{"reason"})

	// WSClients tracks currently connected WebSocket clients.
	WSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cex_arb_ws_clients",
		Help: "Number of connected WebSocket clients",
	})
)
