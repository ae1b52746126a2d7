// Package exchange contains the venue adapters. Each adapter polls one
// exchange's public REST endpoints and normalizes the responses into Quote
// and VenueMarket values. Adapters are stateless between polls; restart and
// backoff policy belongs to the aggregator that drives them.
package exchange

import (
	"context"
	"fmt"

	"github.com/mselser95/cex-arb/pkg/types"
	"go.uber.org/zap"
)

// Adapter is the capability set every venue implements. FetchQuotes performs
// one poll of the venue's ticker endpoint and returns the normalized quotes
// for symbols the resolver knows; FetchMarkets lists the venue's tradable
// USDT spot instruments.
type Adapter interface {
	Name() string
	FetchQuotes(ctx context.Context) ([]types.Quote, error)
	FetchMarkets(ctx context.Context) ([]types.VenueMarket, error)
}

// SymbolResolver maps a venue-native symbol to its canonical form. Quotes
// whose symbol does not resolve are dropped at the source.
type SymbolResolver interface {
	Canonical(exchange, venueSymbol string) (string, bool)
}

// Config holds adapter construction parameters.
type Config struct {
	Resolver SymbolResolver
	Logger   *zap.Logger

	// RateLimitPerSec caps outgoing requests to the venue. Zero disables
	// the limiter.
	RateLimitPerSec float64

	// BaseURL overrides the venue's production endpoint, used by tests.
	BaseURL string
}

// New constructs the adapter for a venue by name.
func New(name string, cfg Config) (Adapter, error) {
	if cfg.Resolver == nil {
		return nil, fmt.Errorf("exchange %s: resolver is required", name)
	}

	if cfg.Logger == nil {
		return nil, fmt.Errorf("exchange %s: logger is required", name)
	}

	switch name {
	case "bybit":
		return newBybit(cfg), nil
	case "okx":
		return newOKX(cfg), nil
	case "bitget":
		return newBitget(cfg), nil
	case "mexc":
		return newMEXC(cfg), nil
	case "kucoin":
		return newKucoin(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported exchange: %s", name)
	}
}

// buildQuote resolves the venue symbol and assembles a Quote. Returns false
// when the symbol has no canonical mapping or the row carries no usable
// price; both cases are dropped at the source.
func buildQuote(resolver SymbolResolver, exchange, venueSymbol string, bid, ask, last float64, ts int64) (types.Quote, bool) {
	canonical, ok := resolver.Canonical(exchange, venueSymbol)
	if !ok {
		UnmappedSymbolsTotal.WithLabelValues(exchange).Inc()

		return types.Quote{}, false
	}

	q := types.Quote{
		Exchange:        exchange,
		VenueSymbol:     venueSymbol,
		CanonicalSymbol: canonical,
		Bid:             bid,
		Ask:             ask,
		Last:            last,
		TimestampMS:     ts,
	}

	if !q.HasPrice() {
		return types.Quote{}, false
	}

	return q, true
}
