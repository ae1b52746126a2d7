package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mselser95/cex-arb/pkg/types"
)

// SupportedExchanges lists the venues this build ships adapters for.
//
//nolint:gochecknoglobals // static venue table
var SupportedExchanges = []string{"bybit", "mexc", "bitget", "okx", "kucoin"}

//nolint:gochecknoglobals // static venue table
var defaultFees = map[string]types.FeeSchedule{
	"bybit":  {TakerPct: 0.001, MakerPct: 0.001},
	"mexc":   {TakerPct: 0.002, MakerPct: 0.002},
	"bitget": {TakerPct: 0.001, MakerPct: 0.001},
	"okx":    {TakerPct: 0.0015, MakerPct: 0.0008},
	"kucoin": {TakerPct: 0.001, MakerPct: 0.001},
}

// ExchangeConfig holds per-venue settings.
type ExchangeConfig struct {
	Name            string
	PollInterval    time.Duration
	TakerFeePct     float64
	MakerFeePct     float64
	RateLimitPerSec float64

	// FeesPinned is set when the operator provided fee overrides via the
	// environment. Pinned fees are never replaced by venue-fetched values.
	FeesPinned bool
}

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Enabled venues with per-venue poll cadence and fees
	Exchanges []ExchangeConfig

	// Evaluation
	EvaluationInterval time.Duration
	TradeNotionalUSDT  float64
	MinSpreadPct       float64

	// Quote store
	QuoteTTL       time.Duration
	IntakeCapacity int
	StoreBatchSize int

	// Stability window
	StabilityWindow time.Duration

	// Symbol-identity filtering
	MinPriceThreshold   float64
	PriceDiffSuspicious float64
	PriceDiffThreshold  float64
	PriceDiffAggressive float64

	// Market discovery and fee refresh
	DiscoveryRefreshInterval time.Duration
	FeeRefreshInterval       time.Duration

	// Telegram notifier
	TelegramEnabled        bool
	TelegramBotToken       string
	TelegramChatID         string
	TelegramNotifyInterval time.Duration
	TelegramMinProfitUSDT  float64
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Evaluation defaults
		EvaluationInterval: getDurationOrDefault("EVALUATION_INTERVAL", 1*time.Second),
		TradeNotionalUSDT:  getFloat64OrDefault("TRADE_NOTIONAL_USDT", 100.0),
		MinSpreadPct:       getFloat64OrDefault("MIN_SPREAD_PCT", 0.0),

		// Quote store defaults
		QuoteTTL:       getDurationOrDefault("QUOTE_TTL", 15*time.Second),
		IntakeCapacity: getIntOrDefault("INTAKE_CAPACITY", 10000),
		StoreBatchSize: getIntOrDefault("STORE_BATCH_SIZE", 100),

		// Stability defaults
		StabilityWindow: getDurationOrDefault("STABILITY_WINDOW", 5*time.Minute),

		// Filtering defaults
		MinPriceThreshold:   getFloat64OrDefault("MIN_PRICE_THRESHOLD", 1e-6),
		PriceDiffSuspicious: getFloat64OrDefault("PRICE_DIFF_SUSPICIOUS", 0.3),
		PriceDiffThreshold:  getFloat64OrDefault("PRICE_DIFF_THRESHOLD", 1.0),
		PriceDiffAggressive: getFloat64OrDefault("PRICE_DIFF_AGGRESSIVE", 2.0),

		// Discovery and fee refresh defaults
		DiscoveryRefreshInterval: getDurationOrDefault("DISCOVERY_REFRESH_INTERVAL", 5*time.Minute),
		FeeRefreshInterval:       getDurationOrDefault("FEE_REFRESH_INTERVAL", 1*time.Hour),

		// Telegram defaults
		TelegramEnabled:        getBoolOrDefault("TELEGRAM_ENABLED", false),
		TelegramBotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:         os.Getenv("TELEGRAM_CHAT_ID"),
		TelegramNotifyInterval: getDurationOrDefault("TELEGRAM_NOTIFY_INTERVAL", 60*time.Second),
		TelegramMinProfitUSDT:  getFloat64OrDefault("TELEGRAM_MIN_PROFIT_USDT", 1.0),
	}

	cfg.Exchanges = loadExchanges()

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// loadExchanges builds the enabled venue list from EXCHANGES plus per-venue
// overrides (<NAME>_POLL_INTERVAL, <NAME>_TAKER_FEE_PCT, <NAME>_MAKER_FEE_PCT).
func loadExchanges() []ExchangeConfig {
	enabled := getEnvOrDefault("EXCHANGES", strings.Join(SupportedExchanges, ","))

	var exchanges []ExchangeConfig

	for _, name := range strings.Split(enabled, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}

		prefix := strings.ToUpper(name)
		fees := defaultFees[name]

		// MEXC throttles aggressively; poll it slower by default.
		pollDefault := 1 * time.Second
		if name == "mexc" {
			pollDefault = 3 * time.Second
		}

		_, takerSet := os.LookupEnv(prefix + "_TAKER_FEE_PCT")
		_, makerSet := os.LookupEnv(prefix + "_MAKER_FEE_PCT")

		exchanges = append(exchanges, ExchangeConfig{
			Name:            name,
			PollInterval:    getDurationOrDefault(prefix+"_POLL_INTERVAL", pollDefault),
			TakerFeePct:     getFloat64OrDefault(prefix+"_TAKER_FEE_PCT", fees.TakerPct),
			MakerFeePct:     getFloat64OrDefault(prefix+"_MAKER_FEE_PCT", fees.MakerPct),
			RateLimitPerSec: getFloat64OrDefault(prefix+"_RATE_LIMIT_PER_SEC", 5.0),
			FeesPinned:      takerSet || makerSet,
		})
	}

	return exchanges
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return &types.ConfigError{Key: "HTTP_PORT", Reason: "cannot be empty"}
	}

	if len(c.Exchanges) < 2 {
		return &types.ConfigError{Key: "EXCHANGES", Reason: "at least two venues are required for cross-exchange scanning"}
	}

	supported := make(map[string]bool, len(SupportedExchanges))
	for _, name := range SupportedExchanges {
		supported[name] = true
	}

	seen := make(map[string]bool, len(c.Exchanges))

	for _, ex := range c.Exchanges {
		if !supported[ex.Name] {
			return &types.ConfigError{Key: "EXCHANGES", Reason: fmt.Sprintf("unsupported exchange %q", ex.Name)}
		}

		if seen[ex.Name] {
			return &types.ConfigError{Key: "EXCHANGES", Reason: fmt.Sprintf("exchange %q listed twice", ex.Name)}
		}

		seen[ex.Name] = true

		if ex.PollInterval <= 0 {
			return &types.ConfigError{Key: strings.ToUpper(ex.Name) + "_POLL_INTERVAL", Reason: "must be positive"}
		}

		if ex.TakerFeePct < 0 || ex.MakerFeePct < 0 {
			return &types.ConfigError{Key: strings.ToUpper(ex.Name) + "_TAKER_FEE_PCT", Reason: "fees cannot be negative"}
		}

		if ex.RateLimitPerSec < 0 {
			return &types.ConfigError{Key: strings.ToUpper(ex.Name) + "_RATE_LIMIT_PER_SEC", Reason: "cannot be negative"}
		}
	}

	if c.EvaluationInterval <= 0 {
		return &types.ConfigError{Key: "EVALUATION_INTERVAL", Reason: "must be positive"}
	}

	if c.TradeNotionalUSDT <= 0 {
		return &types.ConfigError{Key: "TRADE_NOTIONAL_USDT", Reason: "must be positive"}
	}

	if c.MinSpreadPct < 0 {
		return &types.ConfigError{Key: "MIN_SPREAD_PCT", Reason: "cannot be negative"}
	}

	if c.QuoteTTL <= 0 {
		return &types.ConfigError{Key: "QUOTE_TTL", Reason: "must be positive"}
	}

	if c.IntakeCapacity <= 0 {
		return &types.ConfigError{Key: "INTAKE_CAPACITY", Reason: "must be positive"}
	}

	if c.StoreBatchSize <= 0 {
		return &types.ConfigError{Key: "STORE_BATCH_SIZE", Reason: "must be positive"}
	}

	if c.StabilityWindow <= 0 {
		return &types.ConfigError{Key: "STABILITY_WINDOW", Reason: "must be positive"}
	}

	if c.MinPriceThreshold < 0 {
		return &types.ConfigError{Key: "MIN_PRICE_THRESHOLD", Reason: "cannot be negative"}
	}

	if c.DiscoveryRefreshInterval <= 0 {
		return &types.ConfigError{Key: "DISCOVERY_REFRESH_INTERVAL", Reason: "must be positive"}
	}

	if c.FeeRefreshInterval <= 0 {
		return &types.ConfigError{Key: "FEE_REFRESH_INTERVAL", Reason: "must be positive"}
	}

	if c.TelegramEnabled && c.TelegramNotifyInterval <= 0 {
		return &types.ConfigError{Key: "TELEGRAM_NOTIFY_INTERVAL", Reason: "must be positive"}
	}

	return nil
}

// Exchange returns the configuration for a single venue, if enabled.
func (c *Config) Exchange(name string) (ExchangeConfig, bool) {
	for _, ex := range c.Exchanges {
		if ex.Name == name {
			return ex, true
		}
	}

	return ExchangeConfig{}, false
}

// FeeSchedules returns the configured per-venue fees keyed by exchange name.
func (c *Config) FeeSchedules() map[string]types.FeeSchedule {
	fees := make(map[string]types.FeeSchedule, len(c.Exchanges))
	for _, ex := range c.Exchanges {
		fees[ex.Name] = types.FeeSchedule{TakerPct: ex.TakerFeePct, MakerPct: ex.MakerFeePct}
	}

	return fees
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}
