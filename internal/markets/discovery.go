package markets

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mselser95/cex-arb/pkg/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MarketSource lists the tradable USDT spot instruments of one venue. The
// exchange adapters satisfy this.
type MarketSource interface {
	Name() string
	FetchMarkets(ctx context.Context) ([]types.VenueMarket, error)
}

// Discovery periodically rebuilds the symbol universe from every venue's
// market listings.
type Discovery struct {
	sources         []MarketSource
	mapper          *Mapper
	refreshInterval time.Duration
	logger          *zap.Logger

	// onRefresh, when set, runs after each successful install with the
	// new universe. The app hooks readiness reporting here.
	onRefresh func([]types.MarketInfo)

	// installed flips once any refresh has installed a universe, so a
	// caller that refreshed synchronously before Run does not trigger a
	// second fetch burst at startup.
	installed atomic.Bool

	mu     sync.RWMutex
	cached []types.MarketInfo
}

// DiscoveryConfig holds discovery construction parameters.
type DiscoveryConfig struct {
	Sources         []MarketSource
	Mapper          *Mapper
	RefreshInterval time.Duration
	Logger          *zap.Logger
	OnRefresh       func([]types.MarketInfo)
}

// NewDiscovery creates a discovery service.
func NewDiscovery(cfg *DiscoveryConfig) *Discovery {
	return &Discovery{
		sources:         cfg.Sources,
		mapper:          cfg.Mapper,
		refreshInterval: cfg.RefreshInterval,
		logger:          cfg.Logger,
		onRefresh:       cfg.OnRefresh,
	}
}

// Run performs an initial refresh and then refreshes on the configured
// interval until the context is cancelled. Refresh failures are logged, not
// fatal; the previous universe stays installed until a refresh succeeds.
func (d *Discovery) Run(ctx context.Context) error {
	d.logger.Info("discovery-starting",
		zap.Duration("refresh-interval", d.refreshInterval),
		zap.Int("sources", len(d.sources)))

	if !d.installed.Load() {
		err := d.Refresh(ctx)
		if err != nil {
			d.logger.Error("initial-refresh-failed", zap.Error(err))
		}
	}

	ticker := time.NewTicker(d.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("discovery-stopping")
			return ctx.Err()
		case <-ticker.C:
			err := d.Refresh(ctx)
			if err != nil {
				d.logger.Error("refresh-failed", zap.Error(err))
			}
		}
	}
}

// Refresh fetches market listings from every source concurrently, tolerates
// per-venue failures, and installs the intersection into the mapper. It
// returns an error only when no venue responded; below two responsive
// venues the result is installed with a warning because a one-venue
// universe is always empty.
func (d *Discovery) Refresh(ctx context.Context) error {
	start := time.Now()
	defer func() {
		RefreshDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	RefreshesTotal.Inc()

	var mu sync.Mutex

	byExchange := make(map[string][]types.VenueMarket, len(d.sources))

	g, gctx := errgroup.WithContext(ctx)

	for _, source := range d.sources {
		g.Go(func() error {
			listings, err := source.FetchMarkets(gctx)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				RefreshErrorsTotal.WithLabelValues(source.Name()).Inc()
				d.logger.Warn("venue-markets-fetch-failed",
					zap.String("exchange", source.Name()),
					zap.Error(err))

				return nil
			}

			byExchange[source.Name()] = listings
			VenueMarketsGauge.WithLabelValues(source.Name()).Set(float64(len(listings)))

			return nil
		})
	}

	// Errors are swallowed per venue, so Wait only reflects ctx cancellation.
	err := g.Wait()
	if err != nil {
		return err
	}

	responsive := 0

	for _, listings := range byExchange {
		if len(listings) > 0 {
			responsive++
		}
	}

	if responsive == 0 {
		return fmt.Errorf("market discovery: no venue responded (%d configured)", len(d.sources))
	}

	if responsive < minExchangesRequired {
		d.logger.Warn("too-few-venues-responded",
			zap.Int("responsive", responsive),
			zap.Int("required", minExchangesRequired))
	}

	infos := d.mapper.Rebuild(byExchange)
	IntersectionSize.Set(float64(len(infos)))

	d.mu.Lock()
	d.cached = infos
	d.mu.Unlock()

	d.installed.Store(true)

	d.logger.Info("universe-installed",
		zap.Int("symbols", len(infos)),
		zap.Int("responsive-venues", responsive),
		zap.Duration("duration", time.Since(start)))

	if d.onRefresh != nil {
		d.onRefresh(infos)
	}

	return nil
}

// Cached returns the universe installed by the last successful refresh.
func (d *Discovery) Cached() []types.MarketInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]types.MarketInfo, len(d.cached))
	copy(out, d.cached)

	return out
}
