package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mselser95/cex-arb/internal/fees"
	"github.com/mselser95/cex-arb/pkg/cache"
	"github.com/mselser95/cex-arb/pkg/config"
	"github.com/mselser95/cex-arb/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var feesCmd = &cobra.Command{
	Use:   "fees",
	Short: "Show the fee schedules the scanner would use",
	Long: `Prints the per-exchange taker and maker fees from configuration. With
--symbol, additionally queries MEXC for that symbol's live schedule, the
one venue with meaningful per-symbol fees.`,
	RunE: runFees,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(feesCmd)
	feesCmd.Flags().StringP("symbol", "s", "", "Venue symbol for a live MEXC lookup (e.g. BTCUSDT)")
}

func runFees(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

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

	symbol, _ := cmd.Flags().GetString("symbol")

	defaults := make(map[string]types.FeeSchedule, len(cfg.Exchanges))
	pinned := make(map[string]bool, len(cfg.Exchanges))

	for _, e := range cfg.Exchanges {
		defaults[e.Name] = types.FeeSchedule{TakerPct: e.TakerFeePct, MakerPct: e.MakerFeePct}
		pinned[e.Name] = e.FeesPinned
	}

	feeCache, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 100000,
		MaxCost:     10000,
		BufferItems: 64,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("fee cache: %w", err)
	}
	defer feeCache.Close()

	feeService := fees.New(&fees.Config{
		Defaults: defaults,
		Pinned:   pinned,
		Cache:    feeCache,
		TTL:      cfg.FeeRefreshInterval,
		Logger:   logger,
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "EXCHANGE\tTAKER\tMAKER\tSOURCE\n")
	fmt.Fprintf(w, "--------\t-----\t-----\t------\n")

	for _, e := range cfg.Exchanges {
		schedule := defaults[e.Name]

		source := "default"
		if e.FeesPinned {
			source = "env override"
		}

		fmt.Fprintf(w, "%s\t%.4f%%\t%.4f%%\t%s\n",
			e.Name, schedule.TakerPct*100, schedule.MakerPct*100, source)
	}

	w.Flush()

	if symbol != "" {
		fmt.Printf("\nLive MEXC schedule for %s:\n", symbol)

		if err := feeService.Refresh(ctx); err != nil {
			return fmt.Errorf("fetch MEXC fees: %w", err)
		}

		if rc, ok := feeCache.(*cache.RistrettoCache); ok {
			rc.Wait()
		}

		schedule := feeService.Schedule(ctx, "mexc", symbol)
		fmt.Printf("  taker %.4f%%, maker %.4f%%\n", schedule.TakerPct*100, schedule.MakerPct*100)
	}

	return nil
}
