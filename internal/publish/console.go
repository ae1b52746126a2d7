package publish

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mselser95/cex-arb/internal/arbitrage"
	"github.com/mselser95/cex-arb/pkg/types"
)

// consoleTopN bounds how many rows the console sink prints per snapshot.
const consoleTopN = 10

// ConsoleSink pretty-prints each ranking to stdout. Meant for interactive
// runs; the structured log carries the same data for everything else.
type ConsoleSink struct {
	logger *zap.Logger
}

// NewConsoleSink creates a console sink.
func NewConsoleSink(logger *zap.Logger) *ConsoleSink {
	return &ConsoleSink{
		logger: logger.With(zap.String("component", "console-sink")),
	}
}

// Name implements Publisher.
func (c *ConsoleSink) Name() string {
	return "console"
}

// Publish prints the top of the ranking as a table.
func (c *ConsoleSink) Publish(_ context.Context, opps []arbitrage.Opportunity) error {
	if len(opps) == 0 {
		return nil
	}

	fmt.Println("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("🎯 ARBITRAGE RANKING (%d opportunities)\n", len(opps))
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("%-14s %-18s %-18s %12s %9s  %s\n",
		"SYMBOL", "BUY", "SELL", "NET USDT", "SPREAD%", "STABLE")

	rows := opps
	if len(rows) > consoleTopN {
		rows = rows[:consoleTopN]
	}

	for _, o := range rows {
		stable := "  "
		if o.IsStable {
			stable = "✅"
		}

		fmt.Printf("%-14s %-18s %-18s %12.4f %8.3f%%  %s\n",
			o.Symbol,
			fmt.Sprintf("%s@%.8g", o.BuyExchange, o.BuyPrice),
			fmt.Sprintf("%s@%.8g", o.SellExchange, o.SellPrice),
			o.SpreadUSDT,
			o.SpreadPct,
			stable)
	}

	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	return nil
}

// PublishStatus logs connectivity transitions; the table is noise for
// status churn.
func (c *ConsoleSink) PublishStatus(_ context.Context, statuses map[string]types.ExchangeStatus) error {
	for name, st := range statuses {
		if !st.Connected {
			c.logger.Warn("exchange-disconnected",
				zap.String("exchange", name),
				zap.String("last_error", st.LastError),
				zap.Int("error_count", st.ErrorCount))
		}
	}

	return nil
}

// Close is a no-op for the console sink.
func (c *ConsoleSink) Close() error {
	return nil
}
