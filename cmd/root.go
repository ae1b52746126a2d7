package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "cex-arb",
	Short: "Cross-exchange spot arbitrage scanner",
	Long: `Cross-exchange spot arbitrage scanner for USDT pairs.

The scanner polls the public REST ticker endpoints of Bybit, MEXC, Bitget,
OKX and KuCoin, keeps the latest quote per (exchange, symbol) in memory,
and once per second ranks every cross-exchange pair by net-of-fee spread
on a fixed notional. Results are served over HTTP, pushed over WebSocket
and optionally forwarded to Telegram.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
