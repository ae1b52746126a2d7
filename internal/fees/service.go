// Package fees resolves the taker/maker schedule used to price an arbitrage
// leg. Every venue gets a static default from configuration; MEXC publishes
// per-symbol commissions, which a refresh loop bulk-fetches into a TTL
// cache. Lookups never touch the network.
package fees

import (
	"context"
	"fmt"
	"time"

	"github.com/mselser95/cex-arb/pkg/cache"
	"github.com/mselser95/cex-arb/pkg/types"
	"go.uber.org/zap"
)

// Service answers fee lookups. Lookups never fail and never block on I/O:
// a cache miss means the venue's configured default applies.
type Service struct {
	defaults map[string]types.FeeSchedule
	pinned   map[string]bool
	mexc     *mexcFeeClient
	cache    cache.Cache
	ttl      time.Duration
	logger   *zap.Logger
}

// Config holds fee service construction parameters.
type Config struct {
	// Defaults is the per-exchange schedule from configuration.
	Defaults map[string]types.FeeSchedule

	// Pinned marks exchanges whose fees were set by the operator and must
	// not be replaced by venue-fetched values.
	Pinned map[string]bool

	Cache  cache.Cache
	TTL    time.Duration
	Logger *zap.Logger

	// MEXCBaseURL overrides the production endpoint, used by tests.
	MEXCBaseURL string
}

// New creates a fee service.
func New(cfg *Config) *Service {
	return &Service{
		defaults: cfg.Defaults,
		pinned:   cfg.Pinned,
		mexc:     newMEXCFeeClient(cfg.MEXCBaseURL, cfg.Logger),
		cache:    cfg.Cache,
		ttl:      cfg.TTL,
		logger:   cfg.Logger,
	}
}

// Schedule returns the fee schedule for one venue symbol. It is a pure
// in-memory lookup: MEXC symbols resolve against the cache the refresh
// loop fills, every other venue (and any miss) uses the configured
// default. Safe to call from the evaluation tick.
func (s *Service) Schedule(_ context.Context, exchange, venueSymbol string) types.FeeSchedule {
	fallback := s.defaults[exchange]

	if exchange != "mexc" || venueSymbol == "" || s.pinned[exchange] || s.cache == nil {
		return fallback
	}

	if cached, ok := s.cache.Get(feeCacheKey(exchange, venueSymbol)); ok {
		if schedule, ok := cached.(types.FeeSchedule); ok {
			CacheHitsTotal.Inc()

			return schedule
		}
	}

	CacheMissesTotal.Inc()

	return fallback
}

// Refresh bulk-fetches MEXC's exchangeInfo and caches every symbol from
// the single response. A no-op when MEXC is not configured, its fees are
// pinned, or there is no cache to fill.
func (s *Service) Refresh(ctx context.Context) error {
	if s.cache == nil || s.pinned["mexc"] {
		return nil
	}

	if _, configured := s.defaults["mexc"]; !configured {
		return nil
	}

	schedules, err := s.mexc.FetchAllFees(ctx)
	if err != nil {
		return fmt.Errorf("mexc fee refresh: %w", err)
	}

	// Entries live twice the refresh interval so one failed refresh does
	// not drop the whole venue back to defaults.
	for symbol, schedule := range schedules {
		s.cache.Set(feeCacheKey("mexc", symbol), schedule, 2*s.ttl)
	}

	RefreshesTotal.Inc()
	SymbolsCachedGauge.Set(float64(len(schedules)))

	s.logger.Info("fee-schedules-refreshed",
		zap.String("exchange", "mexc"),
		zap.Int("symbols", len(schedules)))

	return nil
}

// Run refreshes once at startup and then on the configured interval until
// the context is cancelled. Refresh failures are logged, not fatal; stale
// cache entries or defaults cover the gap.
func (s *Service) Run(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn("initial-fee-refresh-failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.logger.Warn("fee-refresh-failed", zap.Error(err))
			}
		}
	}
}

// Defaults returns the configured per-exchange schedules, used by the fee
// listing command and the HTTP surface.
func (s *Service) Defaults() map[string]types.FeeSchedule {
	out := make(map[string]types.FeeSchedule, len(s.defaults))
	for exchange, schedule := range s.defaults {
		out[exchange] = schedule
	}

	return out
}

func feeCacheKey(exchange, venueSymbol string) string {
	return fmt.Sprintf("fees:%s:%s", exchange, venueSymbol)
}
