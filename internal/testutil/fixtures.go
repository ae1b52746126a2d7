// Package testutil provides shared fixtures and fakes for package tests.
package testutil

import (
	"time"

	"github.com/mselser95/cex-arb/pkg/types"
)

// QuoteFixture builds a fresh quote with a synthetic spread around mid.
func QuoteFixture(exchange, symbol string, mid float64) types.Quote {
	return types.Quote{
		Exchange:        exchange,
		VenueSymbol:     symbol,
		CanonicalSymbol: symbol,
		Bid:             mid * 0.999,
		Ask:             mid * 1.001,
		Last:            mid,
		TimestampMS:     time.Now().UnixMilli(),
	}
}

// QuoteFixtureAt builds a quote with explicit prices and timestamp.
func QuoteFixtureAt(exchange, symbol string, bid, ask float64, ts int64) types.Quote {
	return types.Quote{
		Exchange:        exchange,
		VenueSymbol:     symbol,
		CanonicalSymbol: symbol,
		Bid:             bid,
		Ask:             ask,
		Last:            (bid + ask) / 2,
		TimestampMS:     ts,
	}
}

// MarketFixture builds a MarketInfo listing the symbol on every given
// exchange under its canonical spelling.
func MarketFixture(symbol string, exchanges ...string) types.MarketInfo {
	venues := make(map[string]string, len(exchanges))
	for _, e := range exchanges {
		venues[e] = symbol
	}

	return types.NewMarketInfo(symbol, venues)
}

// VenueMarketFixture builds one tradable VenueMarket row.
func VenueMarketFixture(exchange, venueSymbol, base string) types.VenueMarket {
	return types.VenueMarket{
		Exchange:    exchange,
		VenueSymbol: venueSymbol,
		BaseAsset:   base,
		QuoteAsset:  "USDT",
		Trading:     true,
	}
}
