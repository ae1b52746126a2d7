package fees

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func fastFeeClient(baseURL string) *mexcFeeClient {
	return &mexcFeeClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		maxRetries:        3,
		initialBackoff:    10 * time.Millisecond,
		maxBackoff:        100 * time.Millisecond,
		backoffMultiplier: 2.0,
		logger:            zap.NewNop(),
	}
}

func TestFetchAllFees_ParsesCommissions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/exchangeInfo" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"symbols": [
			{"symbol": "BTCUSDT", "makerCommission": "0.001", "takerCommission": "0.002"},
			{"symbol": "ethusdt", "makerCommission": "0", "takerCommission": "0.0005"}
		]}`))
	}))
	defer server.Close()

	client := fastFeeClient(server.URL)

	schedules, err := client.FetchAllFees(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(schedules) != 2 {
		t.Fatalf("schedules = %d, want 2", len(schedules))
	}

	if s := schedules["BTCUSDT"]; s.TakerPct != 0.002 || s.MakerPct != 0.001 {
		t.Errorf("BTCUSDT schedule: %+v", s)
	}

	// Venue symbol spellings are uppercased on ingest.
	if s, ok := schedules["ETHUSDT"]; !ok || s.TakerPct != 0.0005 {
		t.Errorf("ETHUSDT schedule: %+v (found=%v)", s, ok)
	}
}

func TestFetchAllFees_BasisPointsScaled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"symbols": [{"symbol": "ETHUSDT", "makerCommission": "20", "takerCommission": "25"}]}`))
	}))
	defer server.Close()

	client := fastFeeClient(server.URL)

	schedules, err := client.FetchAllFees(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Values above 1 are basis points: 25 means 0.25 percent.
	if s := schedules["ETHUSDT"]; s.TakerPct != 0.0025 || s.MakerPct != 0.002 {
		t.Errorf("unexpected schedule: %+v", s)
	}
}

func TestFetchAllFees_SkipsMalformedRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"symbols": [
			{"symbol": "BADUSDT", "makerCommission": "n/a", "takerCommission": "0.001"},
			{"symbol": "GOODUSDT", "makerCommission": "0.001", "takerCommission": "0.001"}
		]}`))
	}))
	defer server.Close()

	client := fastFeeClient(server.URL)

	schedules, err := client.FetchAllFees(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := schedules["BADUSDT"]; ok {
		t.Error("malformed row should be skipped")
	}

	if _, ok := schedules["GOODUSDT"]; !ok {
		t.Error("well-formed row should survive a malformed sibling")
	}
}

func TestFetchAllFees_RetryOn429(t *testing.T) {
	var attemptCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempt := attemptCount.Add(1)

		if attempt <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error": "rate limit exceeded"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"symbols": [{"symbol": "BTCUSDT", "makerCommission": "0", "takerCommission": "0.0005"}]}`))
	}))
	defer server.Close()

	client := fastFeeClient(server.URL)

	schedules, err := client.FetchAllFees(context.Background())
	if err != nil {
		t.Fatalf("expected success after retries, got error: %v", err)
	}

	if s := schedules["BTCUSDT"]; s.TakerPct != 0.0005 {
		t.Errorf("expected taker=0.0005, got %v", s.TakerPct)
	}

	if attemptCount.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attemptCount.Load())
	}
}

func TestFetchAllFees_NoRetryOn404(t *testing.T) {
	var attemptCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attemptCount.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("not found"))
	}))
	defer server.Close()

	client := fastFeeClient(server.URL)

	_, err := client.FetchAllFees(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if attemptCount.Load() != 1 {
		t.Errorf("expected 1 attempt (no retry on 404), got %d", attemptCount.Load())
	}
}

func TestFetchAllFees_MaxRetriesExceeded(t *testing.T) {
	var attemptCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attemptCount.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("persistent server error"))
	}))
	defer server.Close()

	client := fastFeeClient(server.URL)

	_, err := client.FetchAllFees(context.Background())
	if err == nil {
		t.Fatal("expected error after max retries, got nil")
	}

	if !strings.Contains(err.Error(), "max retries") {
		t.Errorf("expected error to mention 'max retries', got: %v", err)
	}

	// Initial attempt plus three retries.
	if attemptCount.Load() != 4 {
		t.Errorf("expected 4 attempts, got %d", attemptCount.Load())
	}
}

func TestFetchAllFees_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"symbols": []}`))
	}))
	defer server.Close()

	client := fastFeeClient(server.URL)

	_, err := client.FetchAllFees(context.Background())
	if err == nil {
		t.Fatal("expected error for empty exchangeInfo, got nil")
	}
}

func TestIsRetryable(t *testing.T) {
	testCases := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil error", nil, false},
		{"context deadline", context.DeadlineExceeded, true},
		{"429 rate limit", fmt.Errorf("API error: status 429"), true},
		{"500 server error", fmt.Errorf("API error: status 500"), true},
		{"502 bad gateway", fmt.Errorf("API error: status 502"), true},
		{"503 unavailable", fmt.Errorf("API error: status 503"), true},
		{"timeout in message", fmt.Errorf("request timeout"), true},
		{"connection refused", fmt.Errorf("connection refused"), true},
		{"connection reset", fmt.Errorf("connection reset by peer"), true},
		{"400 bad request", fmt.Errorf("API error: status 400"), false},
		{"404 not found", fmt.Errorf("API error: status 404"), false},
		{"invalid json", fmt.Errorf("invalid JSON"), false},
		{"generic error", fmt.Errorf("something went wrong"), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := isRetryable(tc.err)
			if result != tc.retryable {
				t.Errorf("expected retryable=%v, got=%v for error: %v",
					tc.retryable, result, tc.err)
			}
		})
	}
}
