// Package aggregator drives the venue adapters. One worker per adapter
// polls on its configured cadence and feeds a bounded intake channel; a
// single batch processor drains the channel and applies bounded batches to
// the quote store. Backpressure is expressed as loss: a full intake drops
// the quote and counts it, it never blocks an adapter.
package aggregator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mselser95/cex-arb/internal/circuitbreaker"
	"github.com/mselser95/cex-arb/internal/quotes"
	"github.com/mselser95/cex-arb/pkg/backoff"
	"github.com/mselser95/cex-arb/pkg/types"
	"go.uber.org/zap"
)

// Breaker defaults. Ten consecutive failed polls park a venue for a minute;
// the worker's own backoff already spaces retries below that.
const (
	breakerFailureThreshold = 10
	breakerResetTimeout     = 60 * time.Second
)

// Adapter is the slice of the exchange adapter surface the aggregator
// drives: one poll returning normalized quotes.
type Adapter interface {
	Name() string
	FetchQuotes(ctx context.Context) ([]types.Quote, error)
}

// WorkerConfig pairs an adapter with its poll cadence.
type WorkerConfig struct {
	Adapter      Adapter
	PollInterval time.Duration
}

// Config holds aggregator construction parameters.
type Config struct {
	Workers        []WorkerConfig
	Store          *quotes.Store
	Status         *quotes.StatusTracker
	IntakeCapacity int
	BatchSize      int
	QuoteTTL       time.Duration
	Logger         *zap.Logger
}

// Aggregator owns the adapter workers and the batch processor.
type Aggregator struct {
	workers   []WorkerConfig
	store     *quotes.Store
	status    *quotes.StatusTracker
	intake    chan types.Quote
	batchSize int
	quoteTTL  time.Duration
	breakers  map[string]*circuitbreaker.Breaker
	logger    *zap.Logger
	wg        sync.WaitGroup
}

// New creates an aggregator with one circuit breaker per adapter.
func New(cfg *Config) (*Aggregator, error) {
	if len(cfg.Workers) == 0 {
		return nil, fmt.Errorf("at least one adapter is required")
	}

	if cfg.Store == nil || cfg.Status == nil {
		return nil, fmt.Errorf("store and status tracker are required")
	}

	if cfg.IntakeCapacity <= 0 || cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("intake capacity and batch size must be positive")
	}

	logger := cfg.Logger.With(zap.String("component", "aggregator"))
	breakers := make(map[string]*circuitbreaker.Breaker, len(cfg.Workers))

	for _, w := range cfg.Workers {
		breaker, err := circuitbreaker.New(&circuitbreaker.Config{
			Name:             w.Adapter.Name(),
			FailureThreshold: breakerFailureThreshold,
			ResetTimeout:     breakerResetTimeout,
			Logger:           cfg.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("breaker for %s: %w", w.Adapter.Name(), err)
		}

		breakers[w.Adapter.Name()] = breaker
	}

	return &Aggregator{
		workers:   cfg.Workers,
		store:     cfg.Store,
		status:    cfg.Status,
		intake:    make(chan types.Quote, cfg.IntakeCapacity),
		batchSize: cfg.BatchSize,
		quoteTTL:  cfg.QuoteTTL,
		breakers:  breakers,
		logger:    logger,
	}, nil
}

// Start launches the adapter workers and the batch processor. They run
// until ctx is cancelled.
func (a *Aggregator) Start(ctx context.Context) {
	a.logger.Info("aggregator-starting",
		zap.Int("workers", len(a.workers)),
		zap.Int("intake-capacity", cap(a.intake)),
		zap.Int("batch-size", a.batchSize))

	a.wg.Add(1)
	go a.runProcessor(ctx)

	for _, w := range a.workers {
		a.wg.Add(1)
		go a.runWorker(ctx, w)
	}
}

// Close waits for all workers and the processor to halt. Call after the
// Start context is cancelled.
func (a *Aggregator) Close() error {
	a.wg.Wait()
	a.logger.Info("aggregator-stopped")

	return nil
}

// Inject routes a quote through the intake channel, same path as adapter
// emissions. Used by the manual-quote endpoint. Returns false if the quote
// was dropped for backpressure.
func (a *Aggregator) Inject(q types.Quote) bool {
	return a.enqueue(q)
}

// runWorker polls one adapter on its cadence. A failed poll records the
// error, trips the breaker toward open and sleeps the backoff before the
// next attempt; the loop itself never terminates until shutdown.
func (a *Aggregator) runWorker(ctx context.Context, w WorkerConfig) {
	defer a.wg.Done()

	name := w.Adapter.Name()
	logger := a.logger.With(zap.String("exchange", name))
	policy := backoff.New(backoff.DefaultConfig())

	logger.Info("worker-starting", zap.Duration("poll-interval", w.PollInterval))

	ticker := time.NewTicker(w.PollInterval)
	defer ticker.Stop()

	for {
		a.pollOnce(ctx, w.Adapter, policy, logger)

		select {
		case <-ctx.Done():
			logger.Info("worker-stopping")
			return
		case <-ticker.C:
		}
	}
}

// pollOnce performs one guarded poll and feeds the results into the intake.
// Panics in adapter code are contained here so a bad response cannot kill
// the worker.
func (a *Aggregator) pollOnce(ctx context.Context, adapter Adapter, policy *backoff.Policy, logger *zap.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("adapter-panic", zap.Any("panic", r))
			a.status.RecordError(adapter.Name(), fmt.Errorf("adapter panic: %v", r))
		}
	}()

	breaker := a.breakers[adapter.Name()]
	if !breaker.Allow() {
		return
	}

	fetched, err := adapter.FetchQuotes(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}

		breaker.RecordFailure()
		a.status.RecordError(adapter.Name(), err)
		WorkerRestartsTotal.WithLabelValues(adapter.Name()).Inc()

		logger.Warn("adapter-poll-failed",
			zap.Error(err),
			zap.Int("attempt", policy.Attempts()+1))

		// Backoff before the next poll. Ticks that fire during the sleep
		// coalesce into one.
		_ = policy.Sleep(ctx)

		return
	}

	breaker.RecordSuccess()
	policy.Reset()

	for _, q := range fetched {
		a.enqueue(q)
	}
}

// enqueue performs the non-blocking intake send. Per-adapter FIFO order is
// preserved because each adapter has a single worker and the channel is
// FIFO; a full channel drops the quote.
func (a *Aggregator) enqueue(q types.Quote) bool {
	select {
	case a.intake <- q:
		IntakeDepth.Set(float64(len(a.intake)))
		return true
	default:
		quotes.QuotesDroppedTotal.WithLabelValues(q.Exchange, "channel_full").Inc()
		return false
	}
}

// runProcessor drains the intake into bounded batches and applies each
// batch atomically. Blocks when the channel is empty.
func (a *Aggregator) runProcessor(ctx context.Context) {
	defer a.wg.Done()

	batch := make([]types.Quote, 0, a.batchSize)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("batch-processor-stopping")
			return
		case q := <-a.intake:
			batch = append(batch[:0], q)

		drain:
			for len(batch) < a.batchSize {
				select {
				case more := <-a.intake:
					batch = append(batch, more)
				default:
					break drain
				}
			}

			a.apply(batch)
		}
	}
}

// apply writes one batch to the store and pushes status updates for every
// exchange present in it.
func (a *Aggregator) apply(batch []types.Quote) {
	a.store.UpsertBatch(batch)
	BatchesAppliedTotal.Inc()

	// Latest timestamp per exchange in this batch.
	latest := make(map[string]int64, 4)
	for _, q := range batch {
		if q.TimestampMS > latest[q.Exchange] {
			latest[q.Exchange] = q.TimestampMS
		}
	}

	now := time.Now().UnixMilli()

	for exchange, ts := range latest {
		fresh := a.store.CountFresh(exchange, now, a.quoteTTL.Milliseconds())
		a.status.MarkUpdated(exchange, ts, fresh)
	}
}
