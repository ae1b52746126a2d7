package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/cex-arb/internal/arbitrage"
	"github.com/mselser95/cex-arb/pkg/healthprobe"
	"github.com/mselser95/cex-arb/pkg/types"
)

// handler serves the JSON API routes.
type handler struct {
	ranking      RankingSource
	status       StatusSource
	markets      MarketSource
	injector     QuoteInjector
	health       *healthprobe.HealthChecker
	filter       arbitrage.FilterConfig
	minSpreadPct float64
	logger       *zap.Logger
}

func newHandler(cfg *Config) *handler {
	return &handler{
		ranking:      cfg.Ranking,
		status:       cfg.Status,
		markets:      cfg.Markets,
		injector:     cfg.Injector,
		health:       cfg.HealthChecker,
		filter:       cfg.Filter,
		minSpreadPct: cfg.MinSpreadPct,
		logger:       cfg.Logger,
	}
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is the GET /api/status payload.
type StatusResponse struct {
	Exchanges        map[string]types.ExchangeStatus `json:"exchanges"`
	UptimeSeconds    float64                         `json:"uptime_seconds"`
	LastEvaluationMS int64                           `json:"last_evaluation_ms"`
}

// FilteringConfigResponse is the GET /api/config/filtering payload.
type FilteringConfigResponse struct {
	MinPriceThreshold   float64 `json:"min_price_threshold"`
	PriceDiffSuspicious float64 `json:"price_diff_suspicious"`
	PriceDiffThreshold  float64 `json:"price_diff_threshold"`
	PriceDiffAggressive float64 `json:"price_diff_aggressive"`
	MinSpreadPct        float64 `json:"min_spread_pct"`
}

// InjectQuoteRequest is the POST /internal/quote body.
type InjectQuoteRequest struct {
	Exchange    string  `json:"exchange"`
	Symbol      string  `json:"symbol"`
	Bid         float64 `json:"bid"`
	Ask         float64 `json:"ask"`
	Last        float64 `json:"last"`
	TimestampMS int64   `json:"timestamp_ms"`
}

// handleRanking handles GET /api/ranking.
func (h *handler) handleRanking(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.ranking.Latest())
}

// handleStatus handles GET /api/status.
func (h *handler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		Exchanges:     h.status.Snapshot(),
		UptimeSeconds: h.health.Uptime().Seconds(),
	}

	if h.ranking != nil {
		resp.LastEvaluationMS = h.ranking.LastEvalMS()
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// handleFilteringConfig handles GET /api/config/filtering.
func (h *handler) handleFilteringConfig(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, FilteringConfigResponse{
		MinPriceThreshold:   h.filter.MinPriceThreshold,
		PriceDiffSuspicious: h.filter.PriceDiffSuspicious,
		PriceDiffThreshold:  h.filter.PriceDiffThreshold,
		PriceDiffAggressive: h.filter.PriceDiffAggressive,
		MinSpreadPct:        h.minSpreadPct,
	})
}

// handleMarkets handles GET /internal/markets.
func (h *handler) handleMarkets(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.markets.Cached())
}

// handleInjectQuote handles POST /internal/quote.
func (h *handler) handleInjectQuote(w http.ResponseWriter, r *http.Request) {
	var req InjectQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if req.Exchange == "" || req.Symbol == "" {
		h.writeError(w, "exchange and symbol are required", http.StatusBadRequest)
		return
	}

	if req.Bid <= 0 && req.Ask <= 0 && req.Last <= 0 {
		h.writeError(w, "at least one of bid, ask, last must be positive", http.StatusBadRequest)
		return
	}

	ts := req.TimestampMS
	if ts <= 0 {
		ts = time.Now().UnixMilli()
	}

	q := types.Quote{
		Exchange:        req.Exchange,
		VenueSymbol:     req.Symbol,
		CanonicalSymbol: req.Symbol,
		Bid:             req.Bid,
		Ask:             req.Ask,
		Last:            req.Last,
		TimestampMS:     ts,
	}

	if !h.injector.Inject(q) {
		h.writeError(w, "quote intake is full", http.StatusServiceUnavailable)
		return
	}

	h.logger.Debug("quote-injected",
		zap.String("exchange", req.Exchange),
		zap.String("symbol", req.Symbol))

	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (h *handler) writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

// writeError writes a JSON error response.
func (h *handler) writeError(w http.ResponseWriter, message string, statusCode int) {
	h.writeJSON(w, statusCode, ErrorResponse{Error: message})
}
