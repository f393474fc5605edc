package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch fresh metrics for a universe into the cache",
	Long: `Fetch snapshots and price history for every ticker in the universe,
derive indicators and valuations and store them in the cache.

Tickers are fetched one at a time with a pause between requests. Failed
tickers keep their previous cache entry and are retried after the first pass.
Ctrl+C stops after the ticker in flight.

Example:
  sentinel refresh --universe dow30
  sentinel refresh --universe AAPL,MSFT,KO --delay 0
  sentinel refresh --universe IBM,
  sentinel refresh --universe all --skip-fresh`,
	RunE: runRefresh,
}

var (
	refreshUniverse  string
	refreshDelay     time.Duration
	refreshSkipFresh bool
	refreshJSON      bool
)

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().StringVarP(&refreshUniverse, "universe", "u", "", "universe name, 'all' or comma list (default from config)")
	refreshCmd.Flags().DurationVar(&refreshDelay, "delay", -1, "pause between tickers (default from config)")
	refreshCmd.Flags().BoolVar(&refreshSkipFresh, "skip-fresh", false, "skip tickers whose cache entry is still fresh")
	refreshCmd.Flags().BoolVar(&refreshJSON, "json", false, "JSON output")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	universe := refreshUniverse
	if universe == "" {
		universe = a.cfg.Refresh.Universe
	}

	s, err := a.svc.Refresh(ctx, universe, refreshDelay, refreshSkipFresh)
	if err != nil {
		return err
	}
	if refreshJSON {
		return printJSON(s)
	}

	tw := newTable(os.Stdout)
	fmt.Fprintf(tw, "Run\t%s\t\n", s.RunID)
	fmt.Fprintf(tw, "Universe\t%s\t\n", s.Universe)
	fmt.Fprintf(tw, "Tickers\t%d\t\n", s.Total)
	fmt.Fprintf(tw, "Succeeded\t%d\t\n", s.Succeeded)
	fmt.Fprintf(tw, "Failed\t%d\t\n", s.Failed)
	fmt.Fprintf(tw, "Skipped\t%d\t\n", s.Skipped)
	fmt.Fprintf(tw, "Retry passes\t%d\t\n", s.RetryPasses)
	fmt.Fprintf(tw, "Duration\t%s\t\n", s.Duration().Round(time.Millisecond))
	tw.Flush()

	if len(s.FailedTickers) > 0 {
		fmt.Printf("\nFailed: %v\n", s.FailedTickers)
	}
	if s.Cancelled {
		fmt.Println("\nRefresh cancelled; remaining tickers were skipped.")
	}
	return nil
}
