package exchange

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/mselser95/cex-arb/pkg/types"
	"go.uber.org/zap"
)

const bybitBaseURL = "https://api.bybit.com"

// bybit polls the v5 public market endpoints. No authentication is needed
// for tickers or instruments-info.
type bybit struct {
	client   *restClient
	resolver SymbolResolver
	logger   *zap.Logger
}

func newBybit(cfg Config) *bybit {
	base := cfg.BaseURL
	if base == "" {
		base = bybitBaseURL
	}

	logger := cfg.Logger.With(zap.String("exchange", "bybit"))

	return &bybit{
		client:   newRESTClient("bybit", base, cfg.RateLimitPerSec, logger),
		resolver: cfg.Resolver,
		logger:   logger,
	}
}

func (b *bybit) Name() string { return "bybit" }

type bybitTicker struct {
	Symbol    string `json:"symbol"`
	Bid1Price string `json:"bid1Price"`
	Ask1Price string `json:"ask1Price"`
	LastPrice string `json:"lastPrice"`
}

type bybitTickersResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		Category string        `json:"category"`
		List     []bybitTicker `json:"list"`
	} `json:"result"`
	Time int64 `json:"time"`
}

// FetchQuotes performs one poll of /v5/market/tickers for the spot category.
func (b *bybit) FetchQuotes(ctx context.Context) ([]types.Quote, error) {
	start := time.Now()
	PollsTotal.WithLabelValues("bybit").Inc()

	params := url.Values{}
	params.Set("category", "spot")

	var resp bybitTickersResponse

	err := b.client.getJSON(ctx, "/v5/market/tickers", params, &resp)
	if err != nil {
		PollErrorsTotal.WithLabelValues("bybit").Inc()

		return nil, err
	}

	if resp.RetCode != 0 {
		PollErrorsTotal.WithLabelValues("bybit").Inc()

		return nil, &types.VenueError{Exchange: "bybit", Message: resp.RetMsg}
	}

	ts := resp.Time
	if ts <= 0 {
		ts = nowMS()
	}

	quotes := make([]types.Quote, 0, len(resp.Result.List))

	for _, row := range resp.Result.List {
		symbol := strings.ToUpper(row.Symbol)
		if !strings.HasSuffix(symbol, "USDT") {
			continue
		}

		bid, bidOK := parsePrice(row.Bid1Price)
		ask, askOK := parsePrice(row.Ask1Price)
		last, lastOK := parsePrice(row.LastPrice)

		if !bidOK || !askOK || !lastOK {
			ParseFailuresTotal.WithLabelValues("bybit").Inc()
			continue
		}

		q, ok := buildQuote(b.resolver, "bybit", symbol, bid, ask, last, ts)
		if !ok {
			continue
		}

		quotes = append(quotes, q)
	}

	PollDurationSeconds.WithLabelValues("bybit").Observe(time.Since(start).Seconds())
	QuotesEmittedTotal.WithLabelValues("bybit").Add(float64(len(quotes)))

	return quotes, nil
}

type bybitInstrument struct {
	Symbol    string `json:"symbol"`
	BaseCoin  string `json:"baseCoin"`
	QuoteCoin string `json:"quoteCoin"`
	Status    string `json:"status"`
}

type bybitInstrumentsResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List []bybitInstrument `json:"list"`
	} `json:"result"`
}

// FetchMarkets lists spot USDT instruments from /v5/market/instruments-info.
func (b *bybit) FetchMarkets(ctx context.Context) ([]types.VenueMarket, error) {
	params := url.Values{}
	params.Set("category", "spot")

	var resp bybitInstrumentsResponse

	err := b.client.getJSON(ctx, "/v5/market/instruments-info", params, &resp)
	if err != nil {
		return nil, err
	}

	if resp.RetCode != 0 {
		return nil, &types.VenueError{Exchange: "bybit", Message: resp.RetMsg}
	}

	markets := make([]types.VenueMarket, 0, len(resp.Result.List))

	for _, item := range resp.Result.List {
		if item.Symbol == "" || item.BaseCoin == "" {
			continue
		}

		if !strings.EqualFold(item.QuoteCoin, "USDT") {
			continue
		}

		markets = append(markets, types.VenueMarket{
			Exchange:    "bybit",
			VenueSymbol: strings.ToUpper(item.Symbol),
			BaseAsset:   strings.ToUpper(item.BaseCoin),
			QuoteAsset:  "USDT",
			Trading:     item.Status == "" || item.Status == "Trading",
		})
	}

	b.logger.Info("markets-fetched", zap.Int("count", len(markets)))

	return markets, nil
}
