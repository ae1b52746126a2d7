package fees

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mselser95/cex-arb/pkg/types"
	"go.uber.org/zap"
)

const mexcBaseURL = "https://api.mexc.com"

// mexcFeeClient fetches per-symbol commissions from the MEXC exchangeInfo
// endpoint. MEXC is the only configured venue that publishes symbol-level
// fees on a public endpoint. One call returns every symbol, so the client
// is invoked from the refresh loop, never from the evaluation path.
type mexcFeeClient struct {
	baseURL           string
	httpClient        *http.Client
	maxRetries        int
	initialBackoff    time.Duration
	maxBackoff        time.Duration
	backoffMultiplier float64
	logger            *zap.Logger
}

func newMEXCFeeClient(baseURL string, logger *zap.Logger) *mexcFeeClient {
	if baseURL == "" {
		baseURL = mexcBaseURL
	}

	return &mexcFeeClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		maxRetries:        3,
		initialBackoff:    100 * time.Millisecond,
		maxBackoff:        2 * time.Second,
		backoffMultiplier: 2.0,
		logger:            logger,
	}
}

type mexcFeeSymbol struct {
	Symbol          string `json:"symbol"`
	MakerCommission string `json:"makerCommission"`
	TakerCommission string `json:"takerCommission"`
}

type mexcFeeInfo struct {
	Symbols []mexcFeeSymbol `json:"symbols"`
}

// FetchAllFees retrieves the taker and maker commission for every listed
// symbol in one exchangeInfo call, retrying transient failures with
// exponential backoff. Commission values above 1 are basis points and are
// scaled down. Rows with unparseable commissions are skipped.
func (c *mexcFeeClient) FetchAllFees(ctx context.Context) (map[string]types.FeeSchedule, error) {
	start := time.Now()
	defer func() {
		FetchDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	backoff := c.initialBackoff

	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}

			backoff = time.Duration(float64(backoff) * c.backoffMultiplier)
			if backoff > c.maxBackoff {
				backoff = c.maxBackoff
			}
		}

		schedules, err := c.fetchOnce(ctx)
		if err == nil {
			return schedules, nil
		}

		lastErr = err

		if !isRetryable(err) {
			FetchErrorsTotal.Inc()

			return nil, err
		}

		c.logger.Debug("mexc-fee-fetch-retry",
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}

	FetchErrorsTotal.Inc()

	return nil, fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

func (c *mexcFeeClient) fetchOnce(ctx context.Context) (map[string]types.FeeSchedule, error) {
	requestURL := c.baseURL + "/api/v3/exchangeInfo"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error: status %d", resp.StatusCode)
	}

	var info mexcFeeInfo

	err = json.NewDecoder(resp.Body).Decode(&info)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if len(info.Symbols) == 0 {
		return nil, fmt.Errorf("empty exchangeInfo response")
	}

	schedules := make(map[string]types.FeeSchedule, len(info.Symbols))

	for _, item := range info.Symbols {
		taker, err := parseCommission(item.TakerCommission)
		if err != nil {
			c.logger.Debug("mexc-fee-row-skipped",
				zap.String("symbol", item.Symbol),
				zap.String("taker", item.TakerCommission))

			continue
		}

		maker, err := parseCommission(item.MakerCommission)
		if err != nil {
			c.logger.Debug("mexc-fee-row-skipped",
				zap.String("symbol", item.Symbol),
				zap.String("maker", item.MakerCommission))

			continue
		}

		schedules[strings.ToUpper(item.Symbol)] = types.FeeSchedule{TakerPct: taker, MakerPct: maker}
	}

	return schedules, nil
}

// parseCommission converts a MEXC commission string to a fraction. Values
// above 1 are basis points (20 means 0.2 percent).
func parseCommission(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}

	if v > 1 {
		v /= 10000
	}

	return v, nil
}

// isRetryable classifies fetch errors. Rate limits, server errors, and
// transport-level failures are worth retrying; client errors and malformed
// payloads are not.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()

	for _, code := range []string{"429", "500", "502", "503", "504"} {
		if strings.Contains(msg, "status "+code) {
			return true
		}
	}

	for _, fragment := range []string{
		"timeout",
		"deadline exceeded",
		"connection refused",
		"connection reset",
	} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}

	return false
}
