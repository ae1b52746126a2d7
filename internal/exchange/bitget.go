package exchange

import (
	"context"
	"strings"
	"time"

	"github.com/mselser95/cex-arb/pkg/types"
	"go.uber.org/zap"
)

const bitgetBaseURL = "https://api.bitget.com"

type bitget struct {
	client   *restClient
	resolver SymbolResolver
	logger   *zap.Logger
}

func newBitget(cfg Config) *bitget {
	base := cfg.BaseURL
	if base == "" {
		base = bitgetBaseURL
	}

	logger := cfg.Logger.With(zap.String("exchange", "bitget"))

	return &bitget{
		client:   newRESTClient("bitget", base, cfg.RateLimitPerSec, logger),
		resolver: cfg.Resolver,
		logger:   logger,
	}
}

func (b *bitget) Name() string { return "bitget" }

type bitgetTicker struct {
	Symbol string `json:"symbol"`
	BidPr  string `json:"bidPr"`
	AskPr  string `json:"askPr"`
	Close  string `json:"close"`
}

type bitgetTickersResponse struct {
	Code string         `json:"code"`
	Msg  string         `json:"msg"`
	Data []bitgetTicker `json:"data"`
}

// FetchQuotes performs one poll of /api/spot/v1/market/tickers. Ticker
// symbols come back without the _SPBL suffix that the products endpoint
// uses, so both forms resolve through the same mapping.
func (b *bitget) FetchQuotes(ctx context.Context) ([]types.Quote, error) {
	start := time.Now()
	PollsTotal.WithLabelValues("bitget").Inc()

	var resp bitgetTickersResponse

	err := b.client.getJSON(ctx, "/api/spot/v1/market/tickers", nil, &resp)
	if err != nil {
		PollErrorsTotal.WithLabelValues("bitget").Inc()

		return nil, err
	}

	if resp.Code != "" && resp.Code != "00000" {
		PollErrorsTotal.WithLabelValues("bitget").Inc()

		return nil, &types.VenueError{Exchange: "bitget", Message: resp.Msg}
	}

	ts := nowMS()
	quotes := make([]types.Quote, 0, len(resp.Data))

	for _, row := range resp.Data {
		symbol := strings.ToUpper(row.Symbol)
		if !strings.HasSuffix(symbol, "USDT") {
			continue
		}

		bid, bidOK := parsePrice(row.BidPr)
		ask, askOK := parsePrice(row.AskPr)
		last, lastOK := parsePrice(row.Close)

		if !bidOK || !askOK || !lastOK {
			ParseFailuresTotal.WithLabelValues("bitget").Inc()
			continue
		}

		q, ok := buildQuote(b.resolver, "bitget", symbol, bid, ask, last, ts)
		if !ok {
			continue
		}

		quotes = append(quotes, q)
	}

	PollDurationSeconds.WithLabelValues("bitget").Observe(time.Since(start).Seconds())
	QuotesEmittedTotal.WithLabelValues("bitget").Add(float64(len(quotes)))

	return quotes, nil
}

type bitgetProduct struct {
	Symbol    string `json:"symbol"`
	BaseCoin  string `json:"baseCoin"`
	QuoteCoin string `json:"quoteCoin"`
	Status    string `json:"status"`
}

type bitgetProductsResponse struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data []bitgetProduct `json:"data"`
}

// FetchMarkets lists spot products from /api/spot/v1/public/products.
// Product symbols carry a _SPBL suffix (for example BTCUSDT_SPBL).
func (b *bitget) FetchMarkets(ctx context.Context) ([]types.VenueMarket, error) {
	var resp bitgetProductsResponse

	err := b.client.getJSON(ctx, "/api/spot/v1/public/products", nil, &resp)
	if err != nil {
		return nil, err
	}

	if resp.Code != "" && resp.Code != "00000" {
		return nil, &types.VenueError{Exchange: "bitget", Message: resp.Msg}
	}

	markets := make([]types.VenueMarket, 0, len(resp.Data))

	for _, item := range resp.Data {
		if item.Symbol == "" {
			continue
		}

		if !strings.EqualFold(item.QuoteCoin, "USDT") {
			continue
		}

		markets = append(markets, types.VenueMarket{
			Exchange:    "bitget",
			VenueSymbol: strings.ToUpper(item.Symbol),
			BaseAsset:   strings.ToUpper(item.BaseCoin),
			QuoteAsset:  "USDT",
			Trading:     item.Status == "" || strings.EqualFold(item.Status, "online"),
		})
	}

	b.logger.Info("markets-fetched", zap.Int("count", len(markets)))

	return markets, nil
}
