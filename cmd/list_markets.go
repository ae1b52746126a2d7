package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mselser95/cex-arb/internal/exchange"
	"github.com/mselser95/cex-arb/internal/markets"
	"github.com/mselser95/cex-arb/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var listMarketsCmd = &cobra.Command{
	Use:   "list-markets",
	Short: "List symbols tradable on two or more venues",
	Long: `Fetches the USDT spot listings of every enabled venue and prints the
canonical symbols tradable on at least two of them, i.e. the universe the
scanner would evaluate.`,
	RunE: runListMarkets,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(listMarketsCmd)
	listMarketsCmd.Flags().IntP("limit", "l", 0, "Maximum number of symbols to print (0 = all)")
	listMarketsCmd.Flags().BoolP("verbose", "v", false, "Show each venue's native spelling")
}

func runListMarkets(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
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

	limit, _ := cmd.Flags().GetInt("limit")
	verbose, _ := cmd.Flags().GetBool("verbose")

	mapper := markets.NewMapper()
	sources := make([]markets.MarketSource, 0, len(cfg.Exchanges))

	for _, e := range cfg.Exchanges {
		adapter, err := exchange.New(e.Name, exchange.Config{
			Resolver:        mapper,
			Logger:          logger,
			RateLimitPerSec: e.RateLimitPerSec,
		})
		if err != nil {
			return fmt.Errorf("adapter %s: %w", e.Name, err)
		}

		sources = append(sources, adapter)
	}

	discovery := markets.NewDiscovery(&markets.DiscoveryConfig{
		Sources:         sources,
		Mapper:          mapper,
		RefreshInterval: cfg.DiscoveryRefreshInterval,
		Logger:          logger,
	})

	fmt.Printf("Fetching listings from %d venues...\n\n", len(sources))

	if err := discovery.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh markets: %w", err)
	}

	universe := discovery.Cached()
	if len(universe) == 0 {
		fmt.Println("No symbol trades on two or more venues.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SYMBOL\tVENUES\tEXCHANGES\n")
	fmt.Fprintf(w, "------\t------\t---------\n")

	shown := 0

	for _, m := range universe {
		if limit > 0 && shown >= limit {
			break
		}

		fmt.Fprintf(w, "%s\t%d\t%s\n", m.Symbol, len(m.Exchanges), strings.Join(m.Exchanges, ","))

		if verbose {
			for _, e := range m.Exchanges {
				fmt.Fprintf(w, "\t\t%s: %s\n", e, m.VenueSymbols[e])
			}
		}

		shown++
	}

	w.Flush()

	fmt.Printf("\nTotal: %d symbols (showing %d)\n", len(universe), shown)

	return nil
}
