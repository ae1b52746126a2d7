package markets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mselser95/cex-arb/pkg/types"
	"go.uber.org/zap"
)

type fakeSource struct {
	name     string
	listings []types.VenueMarket
	err      error
	calls    int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) FetchMarkets(_ context.Context) ([]types.VenueMarket, error) {
	f.calls++

	if f.err != nil {
		return nil, f.err
	}

	return f.listings, nil
}

func newTestDiscovery(t *testing.T, sources ...MarketSource) (*Discovery, *Mapper) {
	t.Helper()

	logger, _ := zap.NewDevelopment()
	mapper := NewMapper()

	return NewDiscovery(&DiscoveryConfig{
		Sources:         sources,
		Mapper:          mapper,
		RefreshInterval: time.Minute,
		Logger:          logger,
	}), mapper
}

func TestDiscovery_Refresh_InstallsUniverse(t *testing.T) {
	bybit := &fakeSource{name: "bybit", listings: []types.VenueMarket{
		listing("bybit", "BTCUSDT", "BTC", true),
		listing("bybit", "ETHUSDT", "ETH", true),
	}}
	kucoin := &fakeSource{name: "kucoin", listings: []types.VenueMarket{
		listing("kucoin", "BTC-USDT", "BTC", true),
	}}

	discovery, mapper := newTestDiscovery(t, bybit, kucoin)

	err := discovery.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if mapper.Size() != 1 {
		t.Errorf("expected 1 intersecting symbol, got %d", mapper.Size())
	}

	cached := discovery.Cached()
	if len(cached) != 1 || cached[0].Symbol != "BTCUSDT" {
		t.Errorf("unexpected cached universe: %+v", cached)
	}
}

func TestDiscovery_Refresh_ToleratesVenueFailure(t *testing.T) {
	bybit := &fakeSource{name: "bybit", listings: []types.VenueMarket{
		listing("bybit", "BTCUSDT", "BTC", true),
	}}
	kucoin := &fakeSource{name: "kucoin", listings: []types.VenueMarket{
		listing("kucoin", "BTC-USDT", "BTC", true),
	}}
	okx := &fakeSource{name: "okx", err: errors.New("connection refused")}

	discovery, mapper := newTestDiscovery(t, bybit, kucoin, okx)

	err := discovery.Refresh(context.Background())
	if err != nil {
		t.Fatalf("expected partial failure to be tolerated, got %v", err)
	}

	if mapper.Size() != 1 {
		t.Errorf("expected universe from responsive venues, got size %d", mapper.Size())
	}
}

func TestDiscovery_Refresh_AllVenuesDown(t *testing.T) {
	bybit := &fakeSource{name: "bybit", err: errors.New("timeout")}
	kucoin := &fakeSource{name: "kucoin", err: errors.New("timeout")}

	discovery, mapper := newTestDiscovery(t, bybit, kucoin)

	err := discovery.Refresh(context.Background())
	if err == nil {
		t.Fatal("expected error when no venue responds")
	}

	if mapper.Size() != 0 {
		t.Errorf("expected empty universe, got %d", mapper.Size())
	}
}

func TestDiscovery_Refresh_KeepsPreviousUniverseOnTotalFailure(t *testing.T) {
	bybit := &fakeSource{name: "bybit", listings: []types.VenueMarket{
		listing("bybit", "BTCUSDT", "BTC", true),
	}}
	kucoin := &fakeSource{name: "kucoin", listings: []types.VenueMarket{
		listing("kucoin", "BTC-USDT", "BTC", true),
	}}

	discovery, mapper := newTestDiscovery(t, bybit, kucoin)

	err := discovery.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bybit.err = errors.New("down")
	kucoin.err = errors.New("down")

	err = discovery.Refresh(context.Background())
	if err == nil {
		t.Fatal("expected error when every venue fails")
	}

	// The previously installed universe keeps serving lookups.
	got, ok := mapper.Canonical("bybit", "BTCUSDT")
	if !ok || got != "BTCUSDT" {
		t.Errorf("expected previous tables to survive, got %q ok=%v", got, ok)
	}
}

func TestDiscovery_Refresh_FiresOnRefreshHook(t *testing.T) {
	bybit := &fakeSource{name: "bybit", listings: []types.VenueMarket{
		listing("bybit", "BTCUSDT", "BTC", true),
	}}
	kucoin := &fakeSource{name: "kucoin", listings: []types.VenueMarket{
		listing("kucoin", "BTC-USDT", "BTC", true),
	}}

	logger, _ := zap.NewDevelopment()

	var hookSymbols []string

	discovery := NewDiscovery(&DiscoveryConfig{
		Sources:         []MarketSource{bybit, kucoin},
		Mapper:          NewMapper(),
		RefreshInterval: time.Minute,
		Logger:          logger,
		OnRefresh: func(infos []types.MarketInfo) {
			for _, info := range infos {
				hookSymbols = append(hookSymbols, info.Symbol)
			}
		},
	})

	err := discovery.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(hookSymbols) != 1 || hookSymbols[0] != "BTCUSDT" {
		t.Errorf("expected hook to observe the universe, got %v", hookSymbols)
	}
}

func TestDiscovery_Run_StopsOnCancel(t *testing.T) {
	bybit := &fakeSource{name: "bybit", listings: []types.VenueMarket{
		listing("bybit", "BTCUSDT", "BTC", true),
	}}
	kucoin := &fakeSource{name: "kucoin", listings: []types.VenueMarket{
		listing("kucoin", "BTC-USDT", "BTC", true),
	}}

	discovery, _ := newTestDiscovery(t, bybit, kucoin)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() {
		done <- discovery.Run(ctx)
	}()

	// Give the initial refresh a moment, then stop.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	if bybit.calls == 0 {
		t.Error("expected at least the initial refresh to run")
	}
}

func TestDiscovery_Run_SkipsRefreshWhenAlreadyInstalled(t *testing.T) {
	bybit := &fakeSource{name: "bybit", listings: []types.VenueMarket{
		listing("bybit", "BTCUSDT", "BTC", true),
	}}
	kucoin := &fakeSource{name: "kucoin", listings: []types.VenueMarket{
		listing("kucoin", "BTC-USDT", "BTC", true),
	}}

	discovery, _ := newTestDiscovery(t, bybit, kucoin)

	// The app refreshes synchronously at startup so the aggregator never
	// polls against an empty mapper; the loop must not fetch again right
	// away.
	if err := discovery.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})

	go func() {
		_ = discovery.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}

	if bybit.calls != 1 || kucoin.calls != 1 {
		t.Fatalf("fetches = (%d, %d), want one per venue", bybit.calls, kucoin.calls)
	}
}
