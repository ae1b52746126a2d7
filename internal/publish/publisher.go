// Package publish fans finished rankings and exchange status changes out to
// the configured sinks: console, Telegram and the WebSocket hub.
package publish

import (
	"context"

	"go.uber.org/zap"

	"github.com/mselser95/cex-arb/internal/arbitrage"
	"github.com/mselser95/cex-arb/pkg/types"
)

// Publisher is one delivery sink for rankings and status snapshots.
type Publisher interface {
	// Name identifies the sink in logs and metrics.
	Name() string

	// Publish delivers a ranked opportunity snapshot.
	Publish(ctx context.Context, opps []arbitrage.Opportunity) error

	// PublishStatus delivers an exchange status snapshot.
	PublishStatus(ctx context.Context, statuses map[string]types.ExchangeStatus) error

	// Close releases the sink's resources.
	Close() error
}

// Broadcaster fans each snapshot out to every sink. A failing sink is
// logged and counted; it never blocks the others or the caller.
type Broadcaster struct {
	sinks  []Publisher
	logger *zap.Logger
}

// NewBroadcaster creates a broadcaster over the given sinks.
func NewBroadcaster(logger *zap.Logger, sinks ...Publisher) *Broadcaster {
	return &Broadcaster{
		sinks:  sinks,
		logger: logger.With(zap.String("component", "broadcaster")),
	}
}

// Publish delivers the ranking to every sink in order.
func (b *Broadcaster) Publish(ctx context.Context, opps []arbitrage.Opportunity) error {
	for _, sink := range b.sinks {
		if err := sink.Publish(ctx, opps); err != nil {
			PublishErrorsTotal.WithLabelValues(sink.Name()).Inc()
			b.logger.Warn("sink-publish-failed",
				zap.String("sink", sink.Name()),
				zap.Error(err))

			continue
		}

		PublishesTotal.WithLabelValues(sink.Name()).Inc()
	}

	return nil
}

// PublishStatus delivers a status snapshot to every sink.
func (b *Broadcaster) PublishStatus(ctx context.Context, statuses map[string]types.ExchangeStatus) error {
	for _, sink := range b.sinks {
		if err := sink.PublishStatus(ctx, statuses); err != nil {
			PublishErrorsTotal.WithLabelValues(sink.Name()).Inc()
			b.logger.Warn("sink-status-failed",
				zap.String("sink", sink.Name()),
				zap.Error(err))
		}
	}

	return nil
}

// Close closes every sink, returning the first error seen.
func (b *Broadcaster) Close() error {
	var first error

	for _, sink := range b.sinks {
		if err := sink.Close(); err != nil && first == nil {
			first = err
		}
	}

	return first
}
