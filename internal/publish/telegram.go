package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/cex-arb/internal/arbitrage"
	"github.com/mselser95/cex-arb/pkg/types"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramConfig configures the Telegram sink.
type TelegramConfig struct {
	BotToken       string
	ChatID         string
	MinProfitUSDT  float64
	NotifyInterval time.Duration
	Logger         *zap.Logger

	// APIBase overrides the Bot API host, used by tests.
	APIBase string
}

// TelegramSink posts the top opportunity of each snapshot to a chat via the
// Bot API. Sends are gated on a minimum net profit and deduped per top
// symbol within the notify interval. Delivery failures are logged, never
// returned; a broken notifier must not disturb the scanner.
type TelegramSink struct {
	token          string
	chatID         string
	minProfitUSDT  float64
	notifyInterval time.Duration
	apiBase        string
	client         *http.Client
	logger         *zap.Logger

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// NewTelegramSink creates the sink. Token and chat ID must be set; the
// caller only constructs the sink when the notifier is enabled.
func NewTelegramSink(cfg TelegramConfig) (*TelegramSink, error) {
	if cfg.BotToken == "" || cfg.ChatID == "" {
		return nil, fmt.Errorf("telegram: bot token and chat id are required")
	}

	if cfg.Logger == nil {
		return nil, fmt.Errorf("telegram: logger is required")
	}

	apiBase := cfg.APIBase
	if apiBase == "" {
		apiBase = telegramAPIBase
	}

	interval := cfg.NotifyInterval
	if interval <= 0 {
		interval = time.Minute
	}

	return &TelegramSink{
		token:          cfg.BotToken,
		chatID:         cfg.ChatID,
		minProfitUSDT:  cfg.MinProfitUSDT,
		notifyInterval: interval,
		apiBase:        apiBase,
		client:         &http.Client{Timeout: 10 * time.Second},
		logger:         cfg.Logger.With(zap.String("component", "telegram-sink")),
		lastSent:       make(map[string]time.Time),
	}, nil
}

// Name implements Publisher.
func (t *TelegramSink) Name() string {
	return "telegram"
}

// Publish notifies about the top opportunity when it clears the gates.
func (t *TelegramSink) Publish(ctx context.Context, opps []arbitrage.Opportunity) error {
	if len(opps) == 0 {
		return nil
	}

	top := opps[0]

	if top.SpreadUSDT < t.minProfitUSDT {
		NotificationsSkippedTotal.WithLabelValues("below_min_profit").Inc()
		return nil
	}

	if !t.shouldNotify(top.Symbol) {
		NotificationsSkippedTotal.WithLabelValues("deduped").Inc()
		return nil
	}

	text := fmt.Sprintf(
		"*%s*\nBuy %s @ %.8g\nSell %s @ %.8g\nNet: %.4f USDT (%.3f%%)\nStable: %v",
		top.Symbol,
		top.BuyExchange, top.BuyPrice,
		top.SellExchange, top.SellPrice,
		top.SpreadUSDT, top.SpreadPct,
		top.IsStable)

	if err := t.send(ctx, text); err != nil {
		NotificationsSkippedTotal.WithLabelValues("send_failed").Inc()
		t.logger.Warn("notification-failed",
			zap.String("symbol", top.Symbol),
			zap.Error(err))

		return nil
	}

	NotificationsSentTotal.Inc()
	t.logger.Info("notification-sent",
		zap.String("symbol", top.Symbol),
		zap.Float64("spread_usdt", top.SpreadUSDT))

	return nil
}

// PublishStatus is a no-op; connectivity churn is not chat material.
func (t *TelegramSink) PublishStatus(_ context.Context, _ map[string]types.ExchangeStatus) error {
	return nil
}

// Close is a no-op.
func (t *TelegramSink) Close() error {
	return nil
}

// shouldNotify records the send time for the symbol when it is due,
// holding the dedupe slot so concurrent publishers cannot double-send.
func (t *TelegramSink) shouldNotify(symbol string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	if last, ok := t.lastSent[symbol]; ok && now.Sub(last) < t.notifyInterval {
		return false
	}

	t.lastSent[symbol] = now

	return true
}

func (t *TelegramSink) send(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token)

	payload := map[string]string{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
