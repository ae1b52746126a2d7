package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mselser95/cex-arb/internal/app"
	"github.com/mselser95/cex-arb/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the arbitrage scanner",
	Long: `Starts the scanner, which will:
1. Discover the tradable USDT symbol universe on every enabled venue
2. Poll each venue's ticker endpoint on its configured cadence
3. Evaluate every cross-exchange pair once per second, net of taker fees
4. Serve the ranking over HTTP and push it over WebSocket`,
	RunE: runScanner,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
}

func runScanner(_ *cobra.Command, _ []string) error {
	// A missing .env file is fine; the environment still applies.
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
