package cmd

import (
	"io"
	"os"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mselser95/cex-arb/internal/arbitrage"
)

// captureStdout runs fn with stdout redirected and returns what it printed.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	orig := os.Stdout

	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout = w

	defer func() { os.Stdout = orig }()

	fn()

	require.NoError(t, w.Close())

	out, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(out)
}

func TestPrintSnapshot_Opportunities(t *testing.T) {
	opps := []arbitrage.Opportunity{
		{
			Symbol:       "BTCUSDT",
			BuyExchange:  "bybit",
			BuyPrice:     60000,
			SellExchange: "okx",
			SellPrice:    60100,
			SpreadUSDT:   0.42,
			SpreadPct:    0.166,
		},
	}

	data, err := json.Marshal(map[string]any{"type": "opportunities", "data": opps})
	require.NoError(t, err)

	out := captureStdout(t, func() { printSnapshot(data, 10) })

	assert.Contains(t, out, "BTCUSDT")
	assert.Contains(t, out, "bybit")
	assert.Contains(t, out, "1 opportunities")
}

func TestPrintSnapshot_EmptyRanking(t *testing.T) {
	out := captureStdout(t, func() {
		printSnapshot([]byte(`{"type":"opportunities","data":[]}`), 10)
	})

	assert.Contains(t, out, "no opportunities")
}

func TestPrintSnapshot_Status(t *testing.T) {
	out := captureStdout(t, func() {
		printSnapshot([]byte(`{"type":"status","data":{"bybit":{"connected":true}}}`), 10)
	})

	assert.Contains(t, out, "status update")
}

func TestPrintSnapshot_IgnoresGarbage(t *testing.T) {
	out := captureStdout(t, func() {
		printSnapshot([]byte("not json"), 10)
		printSnapshot([]byte(`{"type":"unknown","data":1}`), 10)
	})

	assert.Empty(t, out)
}
