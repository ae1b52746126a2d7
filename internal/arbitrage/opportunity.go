// Package arbitrage evaluates the quote store for cross-exchange spreads.
// The engine ticks on a fixed interval, computes net-of-fee opportunities
// over a point-in-time snapshot, splits suspicious symbol groups, annotates
// stability and publishes the ranked result.
package arbitrage

import (
	"fmt"

	"github.com/google/uuid"
)

// Leg is one side of a prospective trade.
type Leg struct {
	Exchange    string
	VenueSymbol string
	Price       float64

	// FeeRate is the taker fee as a fraction (0.001 = 0.1%).
	FeeRate float64
}

// Opportunity is one buy-low/sell-high pairing for a canonical symbol,
// net of taker fees on both legs, computed on a fixed USDT notional.
type Opportunity struct {
	ID              string  `json:"id"`
	Symbol          string  `json:"canonical_symbol"`
	GroupKey        string  `json:"group_key"`
	BuyExchange     string  `json:"buy_exchange"`
	BuyVenueSymbol  string  `json:"buy_venue_symbol"`
	BuyPrice        float64 `json:"buy_price"`
	BuyFeePct       float64 `json:"buy_fee_pct"`
	SellExchange    string  `json:"sell_exchange"`
	SellVenueSymbol string  `json:"sell_venue_symbol"`
	SellPrice       float64 `json:"sell_price"`
	SellFeePct      float64 `json:"sell_fee_pct"`
	GrossProfitUSDT float64 `json:"gross_profit_usdt"`
	TotalFeesUSDT   float64 `json:"total_fees_usdt"`
	SpreadUSDT      float64 `json:"spread_usdt"`
	SpreadPct       float64 `json:"spread_pct"`
	TimestampMS     int64   `json:"timestamp_ms"`
	IsStable        bool    `json:"is_stable"`
}

// NewOpportunity computes the derived profit fields for a buy/sell pairing
// on the given notional. Prices must be positive; the caller filters zeros.
func NewOpportunity(symbol string, buy, sell Leg, notionalUSDT float64, timestampMS int64) Opportunity {
	qty := notionalUSDT / buy.Price
	gross := qty * (sell.Price - buy.Price)
	buyFee := qty * buy.Price * buy.FeeRate
	sellFee := qty * sell.Price * sell.FeeRate
	totalFees := buyFee + sellFee

	return Opportunity{
		ID:              uuid.New().String(),
		Symbol:          symbol,
		GroupKey:        symbol,
		BuyExchange:     buy.Exchange,
		BuyVenueSymbol:  buy.VenueSymbol,
		BuyPrice:        buy.Price,
		BuyFeePct:       buy.FeeRate * 100,
		SellExchange:    sell.Exchange,
		SellVenueSymbol: sell.VenueSymbol,
		SellPrice:       sell.Price,
		SellFeePct:      sell.FeeRate * 100,
		GrossProfitUSDT: gross,
		TotalFeesUSDT:   totalFees,
		SpreadUSDT:      gross - totalFees,
		SpreadPct:       (sell.Price - buy.Price) / buy.Price * 100,
		TimestampMS:     timestampMS,
	}
}

// String returns a one-line human-readable summary.
func (o Opportunity) String() string {
	return fmt.Sprintf(
		"Opportunity[%s] %s buy=%s@%.8g sell=%s@%.8g net=%.4f USDT (%.3f%%) stable=%v",
		o.ID[:8],
		o.Symbol,
		o.BuyExchange,
		o.BuyPrice,
		o.SellExchange,
		o.SellPrice,
		o.SpreadUSDT,
		o.SpreadPct,
		o.IsStable,
	)
}
