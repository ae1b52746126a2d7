package exchange

import (
	"context"
	"strings"
	"time"

	"github.com/mselser95/cex-arb/pkg/types"
	"go.uber.org/zap"
)

const mexcBaseURL = "https://api.mexc.com"

type mexc struct {
	client   *restClient
	resolver SymbolResolver
	logger   *zap.Logger
}

func newMEXC(cfg Config) *mexc {
	base := cfg.BaseURL
	if base == "" {
		base = mexcBaseURL
	}

	logger := cfg.Logger.With(zap.String("exchange", "mexc"))

	return &mexc{
		client:   newRESTClient("mexc", base, cfg.RateLimitPerSec, logger),
		resolver: cfg.Resolver,
		logger:   logger,
	}
}

func (m *mexc) Name() string { return "mexc" }

type mexcTicker struct {
	Symbol    string `json:"symbol"`
	BidPrice  string `json:"bidPrice"`
	AskPrice  string `json:"askPrice"`
	LastPrice string `json:"lastPrice"`
	CloseTime int64  `json:"closeTime"`
}

// FetchQuotes performs one poll of /api/v3/ticker/24hr, which returns a bare
// JSON array. Rows carry their own closeTime, which becomes the quote
// timestamp when present. MEXC rate limits aggressively; 403 responses are
// treated as rate limiting upstream.
func (m *mexc) FetchQuotes(ctx context.Context) ([]types.Quote, error) {
	start := time.Now()
	PollsTotal.WithLabelValues("mexc").Inc()

	var rows []mexcTicker

	err := m.client.getJSON(ctx, "/api/v3/ticker/24hr", nil, &rows)
	if err != nil {
		PollErrorsTotal.WithLabelValues("mexc").Inc()

		return nil, err
	}

	pollTS := nowMS()
	quotes := make([]types.Quote, 0, len(rows))

	for _, row := range rows {
		symbol := strings.ToUpper(row.Symbol)
		if !strings.HasSuffix(symbol, "USDT") {
			continue
		}

		bid, bidOK := parsePrice(row.BidPrice)
		ask, askOK := parsePrice(row.AskPrice)
		last, lastOK := parsePrice(row.LastPrice)

		if !bidOK || !askOK || !lastOK {
			ParseFailuresTotal.WithLabelValues("mexc").Inc()
			continue
		}

		ts := pollTS
		if row.CloseTime > 0 {
			ts = row.CloseTime
		}

		q, ok := buildQuote(m.resolver, "mexc", symbol, bid, ask, last, ts)
		if !ok {
			continue
		}

		quotes = append(quotes, q)
	}

	PollDurationSeconds.WithLabelValues("mexc").Observe(time.Since(start).Seconds())
	QuotesEmittedTotal.WithLabelValues("mexc").Add(float64(len(quotes)))

	return quotes, nil
}

type mexcSymbol struct {
	Symbol               string `json:"symbol"`
	BaseAsset            string `json:"baseAsset"`
	QuoteAsset           string `json:"quoteAsset"`
	Status               string `json:"status"`
	IsSpotTradingAllowed bool   `json:"isSpotTradingAllowed"`
	MakerCommission      string `json:"makerCommission"`
	TakerCommission      string `json:"takerCommission"`
}

type mexcExchangeInfo struct {
	Symbols []mexcSymbol `json:"symbols"`
}

// FetchMarkets lists spot USDT symbols from /api/v3/exchangeInfo. Status "1"
// means the symbol is enabled for trading.
func (m *mexc) FetchMarkets(ctx context.Context) ([]types.VenueMarket, error) {
	var resp mexcExchangeInfo

	err := m.client.getJSON(ctx, "/api/v3/exchangeInfo", nil, &resp)
	if err != nil {
		return nil, err
	}

	markets := make([]types.VenueMarket, 0, len(resp.Symbols))

	for _, item := range resp.Symbols {
		if item.Symbol == "" {
			continue
		}

		if !strings.EqualFold(item.QuoteAsset, "USDT") {
			continue
		}

		markets = append(markets, types.VenueMarket{
			Exchange:    "mexc",
			VenueSymbol: strings.ToUpper(item.Symbol),
			BaseAsset:   strings.ToUpper(item.BaseAsset),
			QuoteAsset:  "USDT",
			Trading:     item.Status == "1" && item.IsSpotTradingAllowed,
		})
	}

	m.logger.Info("markets-fetched", zap.Int("count", len(markets)))

	return markets, nil
}
