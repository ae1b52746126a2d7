package exchange

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/mselser95/cex-arb/pkg/types"
	"go.uber.org/zap"
)

const okxBaseURL = "https://www.okx.com"

type okx struct {
	client   *restClient
	resolver SymbolResolver
	logger   *zap.Logger
}

func newOKX(cfg Config) *okx {
	base := cfg.BaseURL
	if base == "" {
		base = okxBaseURL
	}

	logger := cfg.Logger.With(zap.String("exchange", "okx"))

	return &okx{
		client:   newRESTClient("okx", base, cfg.RateLimitPerSec, logger),
		resolver: cfg.Resolver,
		logger:   logger,
	}
}

func (o *okx) Name() string { return "okx" }

type okxTicker struct {
	InstID string `json:"instId"`
	BidPx  string `json:"bidPx"`
	AskPx  string `json:"askPx"`
	Last   string `json:"last"`
}

type okxTickersResponse struct {
	Code string      `json:"code"`
	Msg  string      `json:"msg"`
	Data []okxTicker `json:"data"`
}

// FetchQuotes performs one poll of /api/v5/market/tickers for SPOT
// instruments. OKX does not echo a server timestamp on this endpoint, so
// quotes carry the local poll time.
func (o *okx) FetchQuotes(ctx context.Context) ([]types.Quote, error) {
	start := time.Now()
	PollsTotal.WithLabelValues("okx").Inc()

	params := url.Values{}
	params.Set("instType", "SPOT")

	var resp okxTickersResponse

	err := o.client.getJSON(ctx, "/api/v5/market/tickers", params, &resp)
	if err != nil {
		PollErrorsTotal.WithLabelValues("okx").Inc()

		return nil, err
	}

	if resp.Code != "" && resp.Code != "0" {
		PollErrorsTotal.WithLabelValues("okx").Inc()

		return nil, &types.VenueError{Exchange: "okx", Message: resp.Msg}
	}

	ts := nowMS()
	quotes := make([]types.Quote, 0, len(resp.Data))

	for _, row := range resp.Data {
		symbol := strings.ToUpper(row.InstID)
		if !strings.HasSuffix(symbol, "-USDT") {
			continue
		}

		bid, bidOK := parsePrice(row.BidPx)
		ask, askOK := parsePrice(row.AskPx)
		last, lastOK := parsePrice(row.Last)

		if !bidOK || !askOK || !lastOK {
			ParseFailuresTotal.WithLabelValues("okx").Inc()
			continue
		}

		q, ok := buildQuote(o.resolver, "okx", symbol, bid, ask, last, ts)
		if !ok {
			continue
		}

		quotes = append(quotes, q)
	}

	PollDurationSeconds.WithLabelValues("okx").Observe(time.Since(start).Seconds())
	QuotesEmittedTotal.WithLabelValues("okx").Add(float64(len(quotes)))

	return quotes, nil
}

type okxInstrument struct {
	InstID   string `json:"instId"`
	BaseCcy  string `json:"baseCcy"`
	QuoteCcy string `json:"quoteCcy"`
	State    string `json:"state"`
}

type okxInstrumentsResponse struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data []okxInstrument `json:"data"`
}

// FetchMarkets lists SPOT USDT instruments from /api/v5/public/instruments.
func (o *okx) FetchMarkets(ctx context.Context) ([]types.VenueMarket, error) {
	params := url.Values{}
	params.Set("instType", "SPOT")

	var resp okxInstrumentsResponse

	err := o.client.getJSON(ctx, "/api/v5/public/instruments", params, &resp)
	if err != nil {
		return nil, err
	}

	if resp.Code != "" && resp.Code != "0" {
		return nil, &types.VenueError{Exchange: "okx", Message: resp.Msg}
	}

	markets := make([]types.VenueMarket, 0, len(resp.Data))

	for _, item := range resp.Data {
		if item.InstID == "" {
			continue
		}

		if !strings.EqualFold(item.QuoteCcy, "USDT") {
			continue
		}

		markets = append(markets, types.VenueMarket{
			Exchange:    "okx",
			VenueSymbol: strings.ToUpper(item.InstID),
			BaseAsset:   strings.ToUpper(item.BaseCcy),
			QuoteAsset:  "USDT",
			Trading:     item.State == "" || item.State == "live",
		})
	}

	o.logger.Info("markets-fetched", zap.Int("count", len(markets)))

	return markets, nil
}
