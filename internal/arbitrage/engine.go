package arbitrage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/cex-arb/internal/quotes"
	"github.com/mselser95/cex-arb/pkg/types"
)

// SnapshotSource supplies a point-in-time copy of the quote store.
type SnapshotSource interface {
	Snapshot() map[quotes.Key]types.Quote
}

// FeeSource resolves the fee schedule for one venue symbol on one exchange.
type FeeSource interface {
	Schedule(ctx context.Context, exchange, venueSymbol string) types.FeeSchedule
}

// Publisher receives each finished ranking. Implementations must not retain
// the slice past the call; the engine hands over a private copy.
type Publisher interface {
	Publish(ctx context.Context, opps []Opportunity) error
}

// Config configures the arbitrage engine.
type Config struct {
	Store           SnapshotSource
	Fees            FeeSource
	Publisher       Publisher // optional
	Interval        time.Duration
	NotionalUSDT    float64
	MinSpreadPct    float64
	QuoteTTL        time.Duration
	StabilityWindow time.Duration
	Filter          FilterConfig
	Logger          *zap.Logger
}

// Engine evaluates every cross-exchange pair once per tick and keeps the
// latest ranking. The engine mutex guards only the ranking pointer swap;
// evaluation and publishing happen entirely outside it.
type Engine struct {
	store        SnapshotSource
	fees         FeeSource
	publisher    Publisher
	interval     time.Duration
	notionalUSDT float64
	minSpreadPct float64
	quoteTTLMS   int64
	filter       FilterConfig
	stability    *StabilityTracker
	logger       *zap.Logger

	mu         sync.RWMutex
	latest     []Opportunity
	lastEvalMS int64
}

// NewEngine creates an engine from the given config.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}

	if cfg.Fees == nil {
		return nil, fmt.Errorf("fee source is required")
	}

	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", cfg.Interval)
	}

	if cfg.NotionalUSDT <= 0 {
		return nil, fmt.Errorf("notional must be positive, got %f", cfg.NotionalUSDT)
	}

	if cfg.QuoteTTL <= 0 {
		return nil, fmt.Errorf("quote TTL must be positive, got %s", cfg.QuoteTTL)
	}

	if cfg.StabilityWindow <= 0 {
		return nil, fmt.Errorf("stability window must be positive, got %s", cfg.StabilityWindow)
	}

	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &Engine{
		store:        cfg.Store,
		fees:         cfg.Fees,
		publisher:    cfg.Publisher,
		interval:     cfg.Interval,
		notionalUSDT: cfg.NotionalUSDT,
		minSpreadPct: cfg.MinSpreadPct,
		quoteTTLMS:   cfg.QuoteTTL.Milliseconds(),
		filter:       cfg.Filter,
		stability:    NewStabilityTracker(cfg.StabilityWindow, cfg.Interval),
		logger:       cfg.Logger.With(zap.String("component", "arbitrage-engine")),
	}, nil
}

// Start runs the evaluation loop until the context is cancelled. Ticks that
// fire while an evaluation is still running coalesce; the loop never queues
// work.
func (e *Engine) Start(ctx context.Context) {
	e.logger.Info("engine-started",
		zap.Duration("interval", e.interval),
		zap.Float64("notional_usdt", e.notionalUSDT),
		zap.Float64("min_spread_pct", e.minSpreadPct))

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine-stopped")
			return
		case <-ticker.C:
			e.EvaluateOnce(ctx)
		}
	}
}

// EvaluateOnce runs a single evaluation tick against the current store
// contents and swaps in the resulting ranking.
func (e *Engine) EvaluateOnce(ctx context.Context) {
	started := time.Now()
	nowMS := started.UnixMilli()

	snapshot := e.store.Snapshot()
	bySymbol := groupFresh(snapshot, nowMS, e.quoteTTLMS)

	ranking := make([]Opportunity, 0, len(bySymbol))
	stableCount := 0

	for symbol, symQuotes := range bySymbol {
		opps := e.evaluateSymbol(ctx, symbol, symQuotes, nowMS)

		for _, o := range opps {
			if o.IsStable {
				stableCount++
			}
		}

		ranking = append(ranking, opps...)
	}

	sortRanking(ranking)

	e.mu.Lock()
	e.latest = ranking
	e.lastEvalMS = nowMS
	e.mu.Unlock()

	EvaluationsTotal.Inc()
	EvaluationDurationSeconds.Observe(time.Since(started).Seconds())
	ActiveOpportunities.Set(float64(len(ranking)))
	StableOpportunities.Set(float64(stableCount))

	// Empty rankings are pushed too so subscribers see opportunities clear.
	if e.publisher != nil {
		if err := e.publisher.Publish(ctx, e.Latest()); err != nil {
			PublishErrorsTotal.Inc()
			e.logger.Warn("publish-failed", zap.Error(err))
		}
	}
}

// evaluateSymbol computes every ordered cross-exchange pair for one symbol.
// A panic while evaluating one symbol is recovered and skips only that
// symbol; the tick continues.
func (e *Engine) evaluateSymbol(ctx context.Context, symbol string, symQuotes []types.Quote, nowMS int64) (opps []Opportunity) {
	defer func() {
		if r := recover(); r != nil {
			EvaluationErrorsTotal.Inc()
			e.logger.Error("symbol-evaluation-panic",
				zap.String("symbol", symbol),
				zap.Any("panic", r))

			opps = nil
		}
	}()

	if len(symQuotes) < 2 {
		return nil
	}

	prices := make(map[string]float64, len(symQuotes))

	for _, q := range symQuotes {
		prices[q.Exchange] = representativePrice(q)
	}

	for _, buyQ := range symQuotes {
		for _, sellQ := range symQuotes {
			if buyQ.Exchange == sellQ.Exchange {
				continue
			}

			buyPrice := buyQ.BuyPrice()
			sellPrice := sellQ.SellPrice()

			if buyPrice <= 0 || sellPrice <= 0 {
				continue
			}

			buyFees := e.fees.Schedule(ctx, buyQ.Exchange, buyQ.VenueSymbol)
			sellFees := e.fees.Schedule(ctx, sellQ.Exchange, sellQ.VenueSymbol)

			opp := NewOpportunity(symbol,
				Leg{Exchange: buyQ.Exchange, VenueSymbol: buyQ.VenueSymbol, Price: buyPrice, FeeRate: buyFees.TakerPct},
				Leg{Exchange: sellQ.Exchange, VenueSymbol: sellQ.VenueSymbol, Price: sellPrice, FeeRate: sellFees.TakerPct},
				e.notionalUSDT, nowMS)

			// Every computed pair feeds the stability history, so a
			// single losing tick breaks the streak even for pairs that
			// drop out of the ranking below.
			netSpreadPct := opp.SpreadUSDT / e.notionalUSDT * 100
			stable := e.stability.Observe(symbol, buyQ.Exchange, sellQ.Exchange, nowMS, netSpreadPct)

			if opp.SpreadUSDT <= 0 || opp.SpreadPct < e.minSpreadPct {
				continue
			}

			opp.IsStable = stable
			opps = append(opps, opp)

			OpportunitiesTotal.Inc()
		}
	}

	if mode := applyIdentityFilter(symbol, prices, opps, e.filter); mode != splitNone {
		IdentitySplitsTotal.WithLabelValues(string(mode)).Inc()
		e.logger.Warn("identity-split",
			zap.String("symbol", symbol),
			zap.String("mode", string(mode)),
			zap.Int("opportunities", len(opps)))
	}

	return opps
}

// Latest returns a copy of the most recent ranking.
func (e *Engine) Latest() []Opportunity {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Opportunity, len(e.latest))
	copy(out, e.latest)

	return out
}

// LastEvalMS returns the wall-clock timestamp of the last completed tick,
// zero before the first one.
func (e *Engine) LastEvalMS() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.lastEvalMS
}

// groupFresh buckets fresh, priced quotes by canonical symbol.
func groupFresh(snapshot map[quotes.Key]types.Quote, nowMS, ttlMS int64) map[string][]types.Quote {
	bySymbol := make(map[string][]types.Quote)

	for key, q := range snapshot {
		if q.IsStale(nowMS, ttlMS) || !q.HasPrice() {
			continue
		}

		bySymbol[key.Symbol] = append(bySymbol[key.Symbol], q)
	}

	return bySymbol
}

// representativePrice picks one price per venue for identity grouping: the
// mid when both sides exist, otherwise whichever side does.
func representativePrice(q types.Quote) float64 {
	if q.Bid > 0 && q.Ask > 0 {
		return (q.Bid + q.Ask) / 2
	}

	return q.BuyPrice()
}

// sortRanking orders by net spread in USDT descending, then spread percent
// descending, then canonical symbol ascending for a deterministic order.
func sortRanking(opps []Opportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		if opps[i].SpreadUSDT != opps[j].SpreadUSDT {
			return opps[i].SpreadUSDT > opps[j].SpreadUSDT
		}

		if opps[i].SpreadPct != opps[j].SpreadPct {
			return opps[i].SpreadPct > opps[j].SpreadPct
		}

		return opps[i].Symbol < opps[j].Symbol
	})
}
