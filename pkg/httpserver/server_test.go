package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/mselser95/cex-arb/internal/arbitrage"
	"github.com/mselser95/cex-arb/pkg/healthprobe"
	"github.com/mselser95/cex-arb/pkg/types"
)

type fakeRanking struct {
	opps   []arbitrage.Opportunity
	evalMS int64
}

func (f *fakeRanking) Latest() []arbitrage.Opportunity { return f.opps }
func (f *fakeRanking) LastEvalMS() int64               { return f.evalMS }

type fakeStatus struct {
	statuses map[string]types.ExchangeStatus
}

func (f *fakeStatus) Snapshot() map[string]types.ExchangeStatus { return f.statuses }

type fakeMarkets struct {
	markets []types.MarketInfo
}

func (f *fakeMarkets) Cached() []types.MarketInfo { return f.markets }

type fakeInjector struct {
	quotes []types.Quote
	full   bool
}

func (f *fakeInjector) Inject(q types.Quote) bool {
	if f.full {
		return false
	}

	f.quotes = append(f.quotes, q)

	return true
}

func newTestServer(t *testing.T, ranking *fakeRanking, status *fakeStatus, markets *fakeMarkets, injector *fakeInjector) *Server {
	t.Helper()

	hc := healthprobe.New()
	hc.SetReady(true)

	return New(&Config{
		Port:          "0",
		Logger:        zaptest.NewLogger(t),
		HealthChecker: hc,
		Ranking:       ranking,
		Status:        status,
		Markets:       markets,
		Injector:      injector,
		Filter:        arbitrage.DefaultFilterConfig(),
		MinSpreadPct:  0.5,
	})
}

func doRequest(t *testing.T, srv *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	return rec
}

func TestServer_Ranking(t *testing.T) {
	ranking := &fakeRanking{
		opps: []arbitrage.Opportunity{
			{Symbol: "BTCUSDT", BuyExchange: "bybit", SellExchange: "okx", SpreadUSDT: 1.2},
		},
		evalMS: 1700000000000,
	}

	srv := newTestServer(t, ranking, &fakeStatus{}, &fakeMarkets{}, &fakeInjector{})

	rec := doRequest(t, srv, http.MethodGet, "/api/ranking", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got []arbitrage.Opportunity
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(got) != 1 || got[0].Symbol != "BTCUSDT" {
		t.Fatalf("unexpected ranking: %+v", got)
	}
}

func TestServer_Status(t *testing.T) {
	status := &fakeStatus{statuses: map[string]types.ExchangeStatus{
		"bybit": {Name: "bybit", Connected: true, QuoteCount: 42},
	}}

	srv := newTestServer(t, &fakeRanking{evalMS: 99}, status, &fakeMarkets{}, &fakeInjector{})

	rec := doRequest(t, srv, http.MethodGet, "/api/status", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.Exchanges["bybit"].QuoteCount != 42 {
		t.Fatalf("unexpected status: %+v", got)
	}

	if got.LastEvaluationMS != 99 {
		t.Fatalf("last_evaluation_ms = %d, want 99", got.LastEvaluationMS)
	}
}

func TestServer_FilteringConfig(t *testing.T) {
	srv := newTestServer(t, &fakeRanking{}, &fakeStatus{}, &fakeMarkets{}, &fakeInjector{})

	rec := doRequest(t, srv, http.MethodGet, "/api/config/filtering", nil)

	var got FilteringConfigResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.MinPriceThreshold != 1e-6 || got.MinSpreadPct != 0.5 {
		t.Fatalf("unexpected config: %+v", got)
	}
}

func TestServer_Markets(t *testing.T) {
	markets := &fakeMarkets{markets: []types.MarketInfo{
		types.NewMarketInfo("BTCUSDT", map[string]string{"bybit": "BTCUSDT", "okx": "BTC-USDT"}),
	}}

	srv := newTestServer(t, &fakeRanking{}, &fakeStatus{}, markets, &fakeInjector{})

	rec := doRequest(t, srv, http.MethodGet, "/internal/markets", nil)

	var got []types.MarketInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(got) != 1 || got[0].Symbol != "BTCUSDT" {
		t.Fatalf("unexpected markets: %+v", got)
	}
}

func TestServer_InjectQuote(t *testing.T) {
	injector := &fakeInjector{}
	srv := newTestServer(t, &fakeRanking{}, &fakeStatus{}, &fakeMarkets{}, injector)

	body, _ := json.Marshal(InjectQuoteRequest{
		Exchange: "bybit", Symbol: "BTCUSDT", Bid: 60000, Ask: 60010,
	})

	rec := doRequest(t, srv, http.MethodPost, "/internal/quote", body)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}

	if len(injector.quotes) != 1 {
		t.Fatalf("injected quotes = %d, want 1", len(injector.quotes))
	}

	if injector.quotes[0].TimestampMS == 0 {
		t.Fatal("missing timestamp must be defaulted")
	}
}

func TestServer_InjectQuoteValidation(t *testing.T) {
	srv := newTestServer(t, &fakeRanking{}, &fakeStatus{}, &fakeMarkets{}, &fakeInjector{})

	cases := []struct {
		name string
		body string
	}{
		{"bad json", "{"},
		{"missing exchange", `{"symbol":"BTCUSDT","bid":1}`},
		{"missing symbol", `{"exchange":"bybit","bid":1}`},
		{"no prices", `{"exchange":"bybit","symbol":"BTCUSDT"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, srv, http.MethodPost, "/internal/quote", []byte(tc.body))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestServer_InjectQuoteIntakeFull(t *testing.T) {
	srv := newTestServer(t, &fakeRanking{}, &fakeStatus{}, &fakeMarkets{}, &fakeInjector{full: true})

	body, _ := json.Marshal(InjectQuoteRequest{Exchange: "bybit", Symbol: "BTCUSDT", Bid: 1})

	rec := doRequest(t, srv, http.MethodPost, "/internal/quote", body)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestServer_Probes(t *testing.T) {
	srv := newTestServer(t, &fakeRanking{}, &fakeStatus{}, &fakeMarkets{}, &fakeInjector{})

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		rec := doRequest(t, srv, http.MethodGet, path, nil)

		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}
