package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/mselser95/cex-arb/internal/arbitrage"
	"github.com/mselser95/cex-arb/pkg/config"
	"github.com/mselser95/cex-arb/pkg/stream"
)

//nolint:gochecknoglobals // Cobra boilerplate
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a running scanner's live ranking",
	Long: `Connects to a running scanner's WebSocket feed and prints each ranking
snapshot as it arrives. Reconnects automatically when the feed drops.

Example:
  cex-arb watch --url ws://localhost:8080/ws`,
	RunE: runWatch,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringP("url", "u", "ws://localhost:8080/ws", "Scanner WebSocket URL")
	watchCmd.Flags().BoolP("json", "j", false, "Output raw JSON messages")
	watchCmd.Flags().IntP("top", "t", 15, "Rows to print per snapshot")
}

// feedMessage mirrors the hub's wire frame.
type feedMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func runWatch(cmd *cobra.Command, _ []string) error {
	url, _ := cmd.Flags().GetString("url")
	rawJSON, _ := cmd.Flags().GetBool("json")
	top, _ := cmd.Flags().GetInt("top")

	logger, err := config.NewLogger("warn")
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	client, err := stream.New(stream.Config{
		URL: url,
		OnMessage: func(data []byte) {
			if rawJSON {
				fmt.Println(string(data))
				return
			}

			printSnapshot(data, top)
		},
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("create stream client: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
	}()

	fmt.Printf("Watching %s (Ctrl-C to stop)...\n", url)

	err = client.Run(ctx)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream: %w", err)
	}

	return nil
}

func printSnapshot(data []byte, top int) {
	var msg feedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}

	switch msg.Type {
	case "opportunities":
		var opps []arbitrage.Opportunity
		if err := json.Unmarshal(msg.Data, &opps); err != nil {
			return
		}

		printRanking(opps, top)

	case "status":
		fmt.Printf("status update: %s\n", msg.Data)
	}
}

func printRanking(opps []arbitrage.Opportunity, top int) {
	if len(opps) == 0 {
		fmt.Println("(no opportunities)")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SYMBOL\tBUY\tSELL\tNET USDT\tSPREAD%%\tSTABLE\n")

	for i, o := range opps {
		if top > 0 && i >= top {
			break
		}

		fmt.Fprintf(w, "%s\t%s@%.8g\t%s@%.8g\t%.4f\t%.3f\t%v\n",
			o.Symbol,
			o.BuyExchange, o.BuyPrice,
			o.SellExchange, o.SellPrice,
			o.SpreadUSDT, o.SpreadPct, o.IsStable)
	}

	w.Flush()
	fmt.Printf("%d opportunities\n\n", len(opps))
}
