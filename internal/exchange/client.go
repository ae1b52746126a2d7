package exchange

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mselser95/cex-arb/pkg/types"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const userAgent = "cex-arb/1.0"

// restClient is the HTTP client shared by the venue adapters. It applies a
// per-venue rate limit before every request and converts non-2xx responses
// into typed VenueErrors so callers can classify throttling.
type restClient struct {
	exchange   string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

func newRESTClient(exchange, baseURL string, requestsPerSec float64, logger *zap.Logger) *restClient {
	var limiter *rate.Limiter
	if requestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSec), 1)
	}

	return &restClient{
		exchange: exchange,
		baseURL:  baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: limiter,
		logger:  logger,
	}
}

// getJSON performs a GET against path with the given query parameters and
// decodes the body into out.
func (c *restClient) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	if c.limiter != nil {
		err := c.limiter.Wait(ctx)
		if err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	requestURL := c.baseURL + path
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("venue-request", zap.String("url", requestURL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &types.VenueError{Exchange: c.exchange, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return &types.VenueError{
			Exchange: c.exchange,
			Status:   resp.StatusCode,
			Message:  string(body),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &types.VenueError{Exchange: c.exchange, Message: fmt.Sprintf("read body: %v", err)}
	}

	err = json.Unmarshal(body, out)
	if err != nil {
		return &types.VenueError{Exchange: c.exchange, Message: fmt.Sprintf("unmarshal response: %v", err)}
	}

	return nil
}

// parsePrice converts a venue price string to a float. Venues report prices
// as strings; an empty string means the field is absent and parses to 0 with
// ok=true, while malformed or negative values return ok=false so the caller
// can count the row instead of treating it as a price.
func parsePrice(s string) (float64, bool) {
	if s == "" {
		return 0, true // absent, not malformed
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}

	return v, true
}

// nowMS returns wall time in integer milliseconds, the venue-time fallback.
func nowMS() int64 {
	return time.Now().UnixMilli()
}
