package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ValueSentinel/internal/screen"
	"ValueSentinel/internal/service"
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Screen cached stocks with a preset or custom criteria",
	Long: `Evaluate cached metrics against a preset or custom criteria.

Criteria use "<metric><op><value>" with ops >=, <=, >, <, = and "~" for
"within a percentage" ("price~100:5" is price within 5% of 100). Values accept
K/M/B/T suffixes and a trailing "%".

Screens never fetch data. Tickers without a cache entry are reported as
missing; stale entries are included and marked.

Example:
  sentinel screen --preset graham
  sentinel screen --preset dividend --universe dow30 --limit 20
  sentinel screen --where "pe<=15" --where "dividend_yield>=3" --sort -dividend_yield`,
	RunE: runScreen,
}

var (
	screenPreset   string
	screenWhere    []string
	screenUniverse string
	screenSort     string
	screenLimit    int
	screenJSON     bool
)

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().StringVarP(&screenPreset, "preset", "p", "", "preset name (see 'sentinel presets')")
	screenCmd.Flags().StringArrayVarP(&screenWhere, "where", "w", nil, "criterion, repeatable (e.g. pe<=15)")
	screenCmd.Flags().StringVarP(&screenUniverse, "universe", "u", "", "universe name, 'all' or comma list (default: whole cache)")
	screenCmd.Flags().StringVar(&screenSort, "sort", "", "sort metric, '-' prefix for descending")
	screenCmd.Flags().IntVarP(&screenLimit, "limit", "n", 0, "maximum results")
	screenCmd.Flags().BoolVar(&screenJSON, "json", false, "JSON output")
}

func runScreen(cmd *cobra.Command, args []string) error {
	if screenPreset == "" && len(screenWhere) == 0 {
		return errors.New("either --preset or --where is required")
	}
	if screenPreset != "" && len(screenWhere) > 0 {
		return errors.New("--preset and --where are mutually exclusive")
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var sc screen.Screen
	if screenPreset != "" {
		p, err := a.svc.Preset(screenPreset)
		if err != nil {
			return err
		}
		sc = p.Screen
		if screenSort != "" {
			key, err := screen.ParseSort(screenSort)
			if err != nil {
				return err
			}
			sc = sc.WithSort(key)
		}
	} else {
		sc, err = screen.ParseScreen("custom", screenWhere, screenSort, 0)
		if err != nil {
			return err
		}
	}

	var tickers []string
	if screenUniverse != "" {
		_, tickers, err = a.svc.ResolveUniverse(screenUniverse)
		if err != nil {
			return err
		}
	}

	run, err := a.svc.RunScreen(ctx, sc, tickers, screenLimit)
	if err != nil {
		return err
	}
	if screenJSON {
		return printJSON(run)
	}
	printScreenRun(run)
	return nil
}

func printScreenRun(run *service.ScreenRun) {
	fmt.Printf("Screen: %s", run.Screen.Name)
	if run.Screen.Description != "" {
		fmt.Printf(" - %s", run.Screen.Description)
	}
	fmt.Println()
	crit := make([]string, len(run.Screen.Criteria))
	for i, c := range run.Screen.Criteria {
		crit[i] = c.String()
	}
	if len(crit) > 0 {
		fmt.Printf("Criteria: %s\n", strings.Join(crit, ", "))
	}
	fmt.Println()

	if len(run.Results) == 0 {
		fmt.Println("No stocks passed.")
	} else {
		tw := newTable(os.Stdout)
		fmt.Fprintln(tw, "TICKER\tPRICE\tP/E\tP/B\tROE%\tRSI\tGRAHAM\tMOS%\tSIGNAL\t")
		for _, r := range run.Results {
			rec := r.Record
			ticker := r.Ticker
			if r.Stale {
				ticker += "*"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
				ticker,
				num(rec.Price(), "%.2f"),
				num(rec.PE, "%.1f"),
				num(rec.PB, "%.2f"),
				num(rec.Snapshot.ROE, "%.1f"),
				num(rec.Indicators.RSI14, "%.0f"),
				num(rec.Valuation.GrahamNumber, "%.2f"),
				num(rec.Valuation.MarginOfSafety, "%+.0f"),
				r.Signal,
			)
		}
		tw.Flush()
	}

	fmt.Printf("\n%d passed of %d evaluated (%d fresh, %d stale; ttl %s)\n",
		len(run.Results), run.Evaluated, run.Fresh, run.Stale, run.TTL)
	if run.Stale > 0 {
		fmt.Println("* stale entry, run 'sentinel refresh' to update")
	}
	if n := len(run.Missing); n > 0 {
		shown := run.Missing
		if n > 10 {
			shown = shown[:10]
		}
		fmt.Printf("%d tickers not cached: %s", n, strings.Join(shown, ", "))
		if n > len(shown) {
			fmt.Print(", ...")
		}
		fmt.Println()
	}
}
