package config

import (
	"os"
	"testing"
	"time"

	"github.com/mselser95/cex-arb/pkg/types"
)

func validConfig() *Config {
	return &Config{
		HTTPPort: "8080",
		Exchanges: []ExchangeConfig{
			{Name: "bybit", PollInterval: time.Second, TakerFeePct: 0.001, MakerFeePct: 0.001},
			{Name: "okx", PollInterval: time.Second, TakerFeePct: 0.0015, MakerFeePct: 0.0008},
		},
		EvaluationInterval: time.Second,
		TradeNotionalUSDT:  100,
		QuoteTTL:           15 * time.Second,
		IntakeCapacity:     10000,
		StoreBatchSize:     100,
		StabilityWindow:    5 * time.Minute,

		DiscoveryRefreshInterval: 5 * time.Minute,
		FeeRefreshInterval:       time.Hour,
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.EvaluationInterval != 1*time.Second {
		t.Errorf("expected EvaluationInterval 1s, got %v", cfg.EvaluationInterval)
	}

	if cfg.TradeNotionalUSDT != 100.0 {
		t.Errorf("expected TradeNotionalUSDT 100, got %f", cfg.TradeNotionalUSDT)
	}

	if cfg.QuoteTTL != 15*time.Second {
		t.Errorf("expected QuoteTTL 15s, got %v", cfg.QuoteTTL)
	}

	if cfg.IntakeCapacity != 10000 {
		t.Errorf("expected IntakeCapacity 10000, got %d", cfg.IntakeCapacity)
	}

	if cfg.StoreBatchSize != 100 {
		t.Errorf("expected StoreBatchSize 100, got %d", cfg.StoreBatchSize)
	}

	if cfg.StabilityWindow != 5*time.Minute {
		t.Errorf("expected StabilityWindow 5m, got %v", cfg.StabilityWindow)
	}

	if len(cfg.Exchanges) != len(SupportedExchanges) {
		t.Errorf("expected all %d supported exchanges enabled, got %d", len(SupportedExchanges), len(cfg.Exchanges))
	}
}

func TestLoadFromEnv_ExchangeList(t *testing.T) {
	os.Setenv("EXCHANGES", "bybit, okx")
	t.Cleanup(func() {
		os.Unsetenv("EXCHANGES")
	})

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(cfg.Exchanges) != 2 {
		t.Fatalf("expected 2 exchanges, got %d", len(cfg.Exchanges))
	}

	if cfg.Exchanges[0].Name != "bybit" || cfg.Exchanges[1].Name != "okx" {
		t.Errorf("unexpected exchange list: %+v", cfg.Exchanges)
	}

	if cfg.Exchanges[1].TakerFeePct != 0.0015 {
		t.Errorf("expected okx default taker fee 0.0015, got %f", cfg.Exchanges[1].TakerFeePct)
	}
}

func TestLoadFromEnv_MexcPollsSlower(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	mexc, ok := cfg.Exchange("mexc")
	if !ok {
		t.Fatal("expected mexc to be enabled by default")
	}

	if mexc.PollInterval != 3*time.Second {
		t.Errorf("expected mexc default poll interval 3s, got %v", mexc.PollInterval)
	}

	bybit, _ := cfg.Exchange("bybit")
	if bybit.PollInterval != 1*time.Second {
		t.Errorf("expected bybit default poll interval 1s, got %v", bybit.PollInterval)
	}
}

func TestLoadFromEnv_PerExchangeOverrides(t *testing.T) {
	os.Setenv("BYBIT_POLL_INTERVAL", "500ms")
	os.Setenv("BYBIT_TAKER_FEE_PCT", "0.0005")
	t.Cleanup(func() {
		os.Unsetenv("BYBIT_POLL_INTERVAL")
		os.Unsetenv("BYBIT_TAKER_FEE_PCT")
	})

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	bybit, ok := cfg.Exchange("bybit")
	if !ok {
		t.Fatal("expected bybit to be enabled")
	}

	if bybit.PollInterval != 500*time.Millisecond {
		t.Errorf("expected poll interval 500ms, got %v", bybit.PollInterval)
	}

	if bybit.TakerFeePct != 0.0005 {
		t.Errorf("expected taker fee 0.0005, got %f", bybit.TakerFeePct)
	}
}

func TestValidate_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{
			name:   "empty_http_port",
			mutate: func(cfg *Config) { cfg.HTTPPort = "" },
		},
		{
			name:   "single_exchange",
			mutate: func(cfg *Config) { cfg.Exchanges = cfg.Exchanges[:1] },
		},
		{
			name:   "unsupported_exchange",
			mutate: func(cfg *Config) { cfg.Exchanges[0].Name = "binance" },
		},
		{
			name:   "duplicate_exchange",
			mutate: func(cfg *Config) { cfg.Exchanges[1].Name = "bybit" },
		},
		{
			name:   "zero_poll_interval",
			mutate: func(cfg *Config) { cfg.Exchanges[0].PollInterval = 0 },
		},
		{
			name:   "negative_fee",
			mutate: func(cfg *Config) { cfg.Exchanges[0].TakerFeePct = -0.001 },
		},
		{
			name:   "zero_evaluation_interval",
			mutate: func(cfg *Config) { cfg.EvaluationInterval = 0 },
		},
		{
			name:   "zero_notional",
			mutate: func(cfg *Config) { cfg.TradeNotionalUSDT = 0 },
		},
		{
			name:   "negative_min_spread",
			mutate: func(cfg *Config) { cfg.MinSpreadPct = -1 },
		},
		{
			name:   "zero_quote_ttl",
			mutate: func(cfg *Config) { cfg.QuoteTTL = 0 },
		},
		{
			name:   "zero_intake_capacity",
			mutate: func(cfg *Config) { cfg.IntakeCapacity = 0 },
		},
		{
			name:   "zero_batch_size",
			mutate: func(cfg *Config) { cfg.StoreBatchSize = 0 },
		},
		{
			name:   "zero_stability_window",
			mutate: func(cfg *Config) { cfg.StabilityWindow = 0 },
		},
		{
			name:   "negative_min_price_threshold",
			mutate: func(cfg *Config) { cfg.MinPriceThreshold = -1e-6 },
		},
		{
			name:   "zero_discovery_refresh_interval",
			mutate: func(cfg *Config) { cfg.DiscoveryRefreshInterval = 0 },
		},
		{
			name:   "zero_fee_refresh_interval",
			mutate: func(cfg *Config) { cfg.FeeRefreshInterval = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}

			if !types.IsConfigError(err) {
				t.Errorf("expected ConfigError, got %T: %v", err, err)
			}
		})
	}
}

func TestValidate_Accepts(t *testing.T) {
	t.Parallel()

	cfg := validConfig()

	err := cfg.Validate()
	if err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestFeeSchedules(t *testing.T) {
	t.Parallel()

	cfg := validConfig()

	fees := cfg.FeeSchedules()
	if len(fees) != 2 {
		t.Fatalf("expected 2 fee schedules, got %d", len(fees))
	}

	if fees["okx"].MakerPct != 0.0008 {
		t.Errorf("expected okx maker fee 0.0008, got %f", fees["okx"].MakerPct)
	}
}
