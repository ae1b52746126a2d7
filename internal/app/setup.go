package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mselser95/cex-arb/internal/aggregator"
	"github.com/mselser95/cex-arb/internal/arbitrage"
	"github.com/mselser95/cex-arb/internal/exchange"
	"github.com/mselser95/cex-arb/internal/fees"
	"github.com/mselser95/cex-arb/internal/markets"
	"github.com/mselser95/cex-arb/internal/publish"
	"github.com/mselser95/cex-arb/internal/quotes"
	"github.com/mselser95/cex-arb/pkg/cache"
	"github.com/mselser95/cex-arb/pkg/config"
	"github.com/mselser95/cex-arb/pkg/healthprobe"
	"github.com/mselser95/cex-arb/pkg/httpserver"
	"github.com/mselser95/cex-arb/pkg/types"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()
	mapper := markets.NewMapper()

	adapters, err := setupAdapters(cfg, logger, mapper)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup adapters: %w", err)
	}

	discovery := setupDiscovery(cfg, logger, mapper, adapters, healthChecker)

	feeService, err := setupFees(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup fees: %w", err)
	}

	store := quotes.NewStore(logger)
	status := quotes.NewStatusTracker(exchangeNames(cfg))

	agg, err := setupAggregator(cfg, logger, adapters, store, status)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup aggregator: %w", err)
	}

	hub := publish.NewHub(logger)
	broadcaster := setupBroadcaster(cfg, logger, hub)

	// Status transitions flow to the sinks on the spot, not on the next
	// evaluation tick.
	status.OnChange(func(snapshot map[string]types.ExchangeStatus) {
		_ = broadcaster.PublishStatus(ctx, snapshot)
	})

	engine, err := setupEngine(cfg, logger, store, feeService, broadcaster)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup engine: %w", err)
	}

	httpServer := setupHTTPServer(cfg, logger, healthChecker, engine, status, discovery, agg, hub)

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		discovery:     discovery,
		fees:          feeService,
		store:         store,
		status:        status,
		agg:           agg,
		engine:        engine,
		hub:           hub,
		broadcaster:   broadcaster,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func exchangeNames(cfg *config.Config) []string {
	names := make([]string, 0, len(cfg.Exchanges))
	for _, e := range cfg.Exchanges {
		names = append(names, e.Name)
	}

	return names
}

func setupAdapters(cfg *config.Config, logger *zap.Logger, mapper *markets.Mapper) (map[string]exchange.Adapter, error) {
	adapters := make(map[string]exchange.Adapter, len(cfg.Exchanges))

	for _, e := range cfg.Exchanges {
		adapter, err := exchange.New(e.Name, exchange.Config{
			Resolver:        mapper,
			Logger:          logger,
			RateLimitPerSec: e.RateLimitPerSec,
		})
		if err != nil {
			return nil, err
		}

		adapters[e.Name] = adapter
	}

	return adapters, nil
}

func setupDiscovery(
	cfg *config.Config,
	logger *zap.Logger,
	mapper *markets.Mapper,
	adapters map[string]exchange.Adapter,
	healthChecker *healthprobe.HealthChecker,
) *markets.Discovery {
	sources := make([]markets.MarketSource, 0, len(adapters))
	for _, adapter := range adapters {
		sources = append(sources, adapter)
	}

	return markets.NewDiscovery(&markets.DiscoveryConfig{
		Sources:         sources,
		Mapper:          mapper,
		RefreshInterval: cfg.DiscoveryRefreshInterval,
		Logger:          logger,
		OnRefresh: func(universe []types.MarketInfo) {
			// The scanner is ready once at least one symbol trades on
			// two or more venues.
			healthChecker.SetReady(len(universe) > 0)
		},
	})
}

func setupFees(cfg *config.Config, logger *zap.Logger) (*fees.Service, error) {
	feeCache, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 100000,
		MaxCost:     10000,
		BufferItems: 64,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("fee cache: %w", err)
	}

	defaults := make(map[string]types.FeeSchedule, len(cfg.Exchanges))
	pinned := make(map[string]bool, len(cfg.Exchanges))

	for _, e := range cfg.Exchanges {
		defaults[e.Name] = types.FeeSchedule{TakerPct: e.TakerFeePct, MakerPct: e.MakerFeePct}
		pinned[e.Name] = e.FeesPinned
	}

	return fees.New(&fees.Config{
		Defaults: defaults,
		Pinned:   pinned,
		Cache:    feeCache,
		TTL:      cfg.FeeRefreshInterval,
		Logger:   logger,
	}), nil
}

func setupAggregator(
	cfg *config.Config,
	logger *zap.Logger,
	adapters map[string]exchange.Adapter,
	store *quotes.Store,
	status *quotes.StatusTracker,
) (*aggregator.Aggregator, error) {
	workers := make([]aggregator.WorkerConfig, 0, len(cfg.Exchanges))

	for _, e := range cfg.Exchanges {
		workers = append(workers, aggregator.WorkerConfig{
			Adapter:      adapters[e.Name],
			PollInterval: e.PollInterval,
		})
	}

	return aggregator.New(&aggregator.Config{
		Workers:        workers,
		Store:          store,
		Status:         status,
		IntakeCapacity: cfg.IntakeCapacity,
		BatchSize:      cfg.StoreBatchSize,
		QuoteTTL:       cfg.QuoteTTL,
		Logger:         logger,
	})
}

func setupBroadcaster(cfg *config.Config, logger *zap.Logger, hub *publish.Hub) *publish.Broadcaster {
	sinks := []publish.Publisher{
		publish.NewConsoleSink(logger),
		hub,
	}

	if cfg.TelegramEnabled {
		telegram, err := publish.NewTelegramSink(publish.TelegramConfig{
			BotToken:       cfg.TelegramBotToken,
			ChatID:         cfg.TelegramChatID,
			MinProfitUSDT:  cfg.TelegramMinProfitUSDT,
			NotifyInterval: cfg.TelegramNotifyInterval,
			Logger:         logger,
		})
		if err != nil {
			logger.Warn("telegram-sink-disabled", zap.Error(err))
		} else {
			sinks = append(sinks, telegram)
		}
	}

	return publish.NewBroadcaster(logger, sinks...)
}

func setupEngine(
	cfg *config.Config,
	logger *zap.Logger,
	store *quotes.Store,
	feeService *fees.Service,
	broadcaster *publish.Broadcaster,
) (*arbitrage.Engine, error) {
	return arbitrage.NewEngine(arbitrage.Config{
		Store:           store,
		Fees:            feeService,
		Publisher:       broadcaster,
		Interval:        cfg.EvaluationInterval,
		NotionalUSDT:    cfg.TradeNotionalUSDT,
		MinSpreadPct:    cfg.MinSpreadPct,
		QuoteTTL:        cfg.QuoteTTL,
		StabilityWindow: cfg.StabilityWindow,
		Filter:          filterConfig(cfg),
		Logger:          logger,
	})
}

func filterConfig(cfg *config.Config) arbitrage.FilterConfig {
	return arbitrage.FilterConfig{
		MinPriceThreshold:   cfg.MinPriceThreshold,
		PriceDiffSuspicious: cfg.PriceDiffSuspicious,
		PriceDiffThreshold:  cfg.PriceDiffThreshold,
		PriceDiffAggressive: cfg.PriceDiffAggressive,
	}
}

func setupHTTPServer(
	cfg *config.Config,
	logger *zap.Logger,
	healthChecker *healthprobe.HealthChecker,
	engine *arbitrage.Engine,
	status *quotes.StatusTracker,
	discovery *markets.Discovery,
	agg *aggregator.Aggregator,
	hub *publish.Hub,
) *httpserver.Server {
	return httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Ranking:       engine,
		Status:        status,
		Markets:       discovery,
		Injector:      agg,
		Filter:        filterConfig(cfg),
		MinSpreadPct:  cfg.MinSpreadPct,
		WSHandler:     hub.ServeWS,
	})
}
