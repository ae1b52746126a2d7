package exchange

import (
	"context"
	"strings"
	"time"

	"github.com/mselser95/cex-arb/pkg/types"
	"go.uber.org/zap"
)

const kucoinBaseURL = "https://api.kucoin.com"

type kucoin struct {
	client   *restClient
	resolver SymbolResolver
	logger   *zap.Logger
}

func newKucoin(cfg Config) *kucoin {
	base := cfg.BaseURL
	if base == "" {
		base = kucoinBaseURL
	}

	logger := cfg.Logger.With(zap.String("exchange", "kucoin"))

	return &kucoin{
		client:   newRESTClient("kucoin", base, cfg.RateLimitPerSec, logger),
		resolver: cfg.Resolver,
		logger:   logger,
	}
}

func (k *kucoin) Name() string { return "kucoin" }

type kucoinTicker struct {
	Symbol string `json:"symbol"`
	Buy    string `json:"buy"`
	Sell   string `json:"sell"`
	Last   string `json:"last"`
}

type kucoinAllTickers struct {
	Code string `json:"code"`
	Data struct {
		Time   int64          `json:"time"`
		Ticker []kucoinTicker `json:"ticker"`
	} `json:"data"`
}

// FetchQuotes performs one poll of /api/v1/market/allTickers. KuCoin names
// the best bid "buy" and the best ask "sell", and reports a single server
// timestamp for the whole snapshot.
func (k *kucoin) FetchQuotes(ctx context.Context) ([]types.Quote, error) {
	start := time.Now()
	PollsTotal.WithLabelValues("kucoin").Inc()

	var resp kucoinAllTickers

	err := k.client.getJSON(ctx, "/api/v1/market/allTickers", nil, &resp)
	if err != nil {
		PollErrorsTotal.WithLabelValues("kucoin").Inc()

		return nil, err
	}

	if resp.Code != "" && resp.Code != "200000" {
		PollErrorsTotal.WithLabelValues("kucoin").Inc()

		return nil, &types.VenueError{Exchange: "kucoin", Message: "code " + resp.Code}
	}

	ts := resp.Data.Time
	if ts <= 0 {
		ts = nowMS()
	}

	quotes := make([]types.Quote, 0, len(resp.Data.Ticker))

	for _, row := range resp.Data.Ticker {
		symbol := strings.ToUpper(row.Symbol)
		if !strings.HasSuffix(symbol, "-USDT") {
			continue
		}

		bid, bidOK := parsePrice(row.Buy)
		ask, askOK := parsePrice(row.Sell)
		last, lastOK := parsePrice(row.Last)

		if !bidOK || !askOK || !lastOK {
			ParseFailuresTotal.WithLabelValues("kucoin").Inc()
			continue
		}

		q, ok := buildQuote(k.resolver, "kucoin", symbol, bid, ask, last, ts)
		if !ok {
			continue
		}

		quotes = append(quotes, q)
	}

	PollDurationSeconds.WithLabelValues("kucoin").Observe(time.Since(start).Seconds())
	QuotesEmittedTotal.WithLabelValues("kucoin").Add(float64(len(quotes)))

	return quotes, nil
}

type kucoinSymbol struct {
	Symbol        string `json:"symbol"`
	BaseCurrency  string `json:"baseCurrency"`
	QuoteCurrency string `json:"quoteCurrency"`
	EnableTrading bool   `json:"enableTrading"`
}

type kucoinSymbolsResponse struct {
	Code string         `json:"code"`
	Data []kucoinSymbol `json:"data"`
}

// FetchMarkets lists symbols from /api/v1/symbols. KuCoin venue symbols use
// the hyphenated BASE-USDT form.
func (k *kucoin) FetchMarkets(ctx context.Context) ([]types.VenueMarket, error) {
	var resp kucoinSymbolsResponse

	err := k.client.getJSON(ctx, "/api/v1/symbols", nil, &resp)
	if err != nil {
		return nil, err
	}

	if resp.Code != "" && resp.Code != "200000" {
		return nil, &types.VenueError{Exchange: "kucoin", Message: "code " + resp.Code}
	}

	markets := make([]types.VenueMarket, 0, len(resp.Data))

	for _, item := range resp.Data {
		if item.Symbol == "" {
			continue
		}

		if !strings.EqualFold(item.QuoteCurrency, "USDT") {
			continue
		}

		markets = append(markets, types.VenueMarket{
			Exchange:    "kucoin",
			VenueSymbol: strings.ToUpper(item.Symbol),
			BaseAsset:   strings.ToUpper(item.BaseCurrency),
			QuoteAsset:  "USDT",
			Trading:     item.EnableTrading,
		})
	}

	k.logger.Info("markets-fetched", zap.Int("count", len(markets)))

	return markets, nil
}
