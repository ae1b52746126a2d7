package fees

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mselser95/cex-arb/pkg/cache"
	"github.com/mselser95/cex-arb/pkg/types"
	"go.uber.org/zap"
)

func testDefaults() map[string]types.FeeSchedule {
	return map[string]types.FeeSchedule{
		"bybit":  {TakerPct: 0.001, MakerPct: 0.001},
		"mexc":   {TakerPct: 0.002, MakerPct: 0.002},
		"kucoin": {TakerPct: 0.001, MakerPct: 0.001},
	}
}

func newTestCache(t *testing.T) cache.Cache {
	t.Helper()

	c, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 1000,
		MaxCost:     1 << 20,
		BufferItems: 64,
		Logger:      zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}

	t.Cleanup(func() { c.Close() })

	return c
}

func TestService_Schedule_StaticVenueUsesDefault(t *testing.T) {
	service := New(&Config{
		Defaults: testDefaults(),
		TTL:      time.Hour,
		Logger:   zap.NewNop(),
	})

	schedule := service.Schedule(context.Background(), "bybit", "BTCUSDT")
	if schedule.TakerPct != 0.001 || schedule.MakerPct != 0.001 {
		t.Errorf("unexpected schedule: %+v", schedule)
	}
}

func TestService_Refresh_CachesWholeResponse(t *testing.T) {
	var fetchCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetchCount.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"symbols": [
			{"symbol": "BTCUSDT", "makerCommission": "0", "takerCommission": "0.0005"},
			{"symbol": "ETHUSDT", "makerCommission": "0.001", "takerCommission": "0.001"}
		]}`))
	}))
	defer server.Close()

	testCache := newTestCache(t)

	service := New(&Config{
		Defaults:    testDefaults(),
		Cache:       testCache,
		TTL:         time.Hour,
		Logger:      zap.NewNop(),
		MEXCBaseURL: server.URL,
	})

	if err := service.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if rc, ok := testCache.(*cache.RistrettoCache); ok {
		rc.Wait()
	}

	if got := service.Schedule(context.Background(), "mexc", "BTCUSDT"); got.TakerPct != 0.0005 {
		t.Errorf("BTCUSDT taker = %v, want 0.0005", got.TakerPct)
	}

	if got := service.Schedule(context.Background(), "mexc", "ETHUSDT"); got.TakerPct != 0.001 {
		t.Errorf("ETHUSDT taker = %v, want 0.001", got.TakerPct)
	}

	// One exchangeInfo call covers every symbol.
	if fetchCount.Load() != 1 {
		t.Errorf("venue fetches = %d, want 1", fetchCount.Load())
	}
}

func TestService_Schedule_NeverFetches(t *testing.T) {
	var fetchCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetchCount.Add(1)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"symbols": [{"symbol": "BTCUSDT", "makerCommission": "0", "takerCommission": "0.0005"}]}`))
	}))
	defer server.Close()

	service := New(&Config{
		Defaults:    testDefaults(),
		Cache:       newTestCache(t),
		TTL:         time.Hour,
		Logger:      zap.NewNop(),
		MEXCBaseURL: server.URL,
	})

	// Cold cache: the lookup falls straight back to the default without a
	// round-trip, so evaluation ticks never block on the venue.
	schedule := service.Schedule(context.Background(), "mexc", "BTCUSDT")
	if schedule.TakerPct != 0.002 {
		t.Errorf("cold lookup = %+v, want configured default", schedule)
	}

	if fetchCount.Load() != 0 {
		t.Errorf("venue fetches = %d, want 0", fetchCount.Load())
	}
}

func TestService_Refresh_ErrorKeepsDefaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	service := New(&Config{
		Defaults:    testDefaults(),
		Cache:       newTestCache(t),
		TTL:         time.Hour,
		Logger:      zap.NewNop(),
		MEXCBaseURL: server.URL,
	})

	if err := service.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}

	schedule := service.Schedule(context.Background(), "mexc", "BTCUSDT")
	if schedule.TakerPct != 0.002 || schedule.MakerPct != 0.002 {
		t.Errorf("expected configured default after failed refresh, got %+v", schedule)
	}
}

func TestService_Refresh_PinnedFeesSkipFetch(t *testing.T) {
	var fetchCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetchCount.Add(1)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"symbols": []}`))
	}))
	defer server.Close()

	service := New(&Config{
		Defaults:    map[string]types.FeeSchedule{"mexc": {TakerPct: 0.0001, MakerPct: 0.0001}},
		Pinned:      map[string]bool{"mexc": true},
		Cache:       newTestCache(t),
		TTL:         time.Hour,
		Logger:      zap.NewNop(),
		MEXCBaseURL: server.URL,
	})

	if err := service.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if fetchCount.Load() != 0 {
		t.Errorf("venue fetches = %d, want 0 for pinned fees", fetchCount.Load())
	}

	schedule := service.Schedule(context.Background(), "mexc", "BTCUSDT")
	if schedule.TakerPct != 0.0001 {
		t.Errorf("expected pinned schedule, got %+v", schedule)
	}
}

func TestService_Refresh_SkipsWhenMEXCNotConfigured(t *testing.T) {
	var fetchCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetchCount.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	service := New(&Config{
		Defaults:    map[string]types.FeeSchedule{"bybit": {TakerPct: 0.001}},
		Cache:       newTestCache(t),
		TTL:         time.Hour,
		Logger:      zap.NewNop(),
		MEXCBaseURL: server.URL,
	})

	if err := service.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if fetchCount.Load() != 0 {
		t.Errorf("venue fetches = %d, want 0 without MEXC configured", fetchCount.Load())
	}
}

func TestService_Schedule_UnknownExchangeZeroFees(t *testing.T) {
	service := New(&Config{
		Defaults: testDefaults(),
		TTL:      time.Hour,
		Logger:   zap.NewNop(),
	})

	schedule := service.Schedule(context.Background(), "binance", "BTCUSDT")
	if schedule.TakerPct != 0 || schedule.MakerPct != 0 {
		t.Errorf("expected zero schedule for unknown venue, got %+v", schedule)
	}
}

func TestService_Run_StopsOnCancel(t *testing.T) {
	var fetchCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetchCount.Add(1)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"symbols": [{"symbol": "BTCUSDT", "makerCommission": "0", "takerCommission": "0.0005"}]}`))
	}))
	defer server.Close()

	service := New(&Config{
		Defaults:    testDefaults(),
		Cache:       newTestCache(t),
		TTL:         time.Hour,
		Logger:      zap.NewNop(),
		MEXCBaseURL: server.URL,
	})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})

	go func() {
		service.Run(ctx)
		close(done)
	}()

	// The initial refresh happens before the ticker loop.
	deadline := time.After(2 * time.Second)
	for fetchCount.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("initial refresh never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
