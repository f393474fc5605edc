package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/spf13/cobra"

	"ValueSentinel/internal/service"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze TICKER",
	Short: "Show every cached metric for one ticker",
	Long: `Print the cached snapshot, technical indicators and valuation for a
ticker. The cache is never refreshed by this command.

Example:
  sentinel analyze AAPL
  sentinel analyze KO --json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var analyzeJSON bool

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "JSON output")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.svc.Analyze(ctx, args[0])
	if err != nil {
		return err
	}
	if analyzeJSON {
		return printJSON(res)
	}
	printAnalysis(res)
	return nil
}

func printAnalysis(res *service.Analysis) {
	rec := res.Entry.Record
	s := rec.Snapshot

	title := rec.Ticker
	if s.Name != "" {
		title += " - " + s.Name
	}
	fmt.Println(title)
	if s.Sector != "" {
		fmt.Printf("%s / %s\n", s.Sector, s.Industry)
	}
	status := "fresh"
	if res.Stale {
		status = "STALE"
	}
	fmt.Printf("Fetched %s (%s)\n\n", age(res.Age), status)

	sections := []struct {
		title string
		rows  [][2]string
	}{
		{"Price", [][2]string{
			{"Price", num(s.Price, "%.2f")},
			{"Market cap", big(s.MarketCap)},
			{"52w range", fmt.Sprintf("%s - %s", num(rec.Indicators.Low52w, "%.2f"), num(rec.Indicators.High52w, "%.2f"))},
			{"52w position", num(rec.Indicators.Position52w, "%.2f")},
			{"From 52w high", pct(rec.Indicators.PctFrom52wHigh)},
		}},
		{"Valuation", [][2]string{
			{"P/E", num(rec.PE, "%.2f")},
			{"Forward P/E", num(s.PEForward, "%.2f")},
			{"P/B", num(rec.PB, "%.2f")},
			{"P/S", num(s.PS, "%.2f")},
			{"PEG", num(s.PEG, "%.2f")},
			{"EV/EBITDA", num(s.EVEBITDA, "%.2f")},
			{"FCF yield", pct(rec.FCFYield)},
		}},
		{"Quality", [][2]string{
			{"ROE", pct(s.ROE)},
			{"ROA", pct(s.ROA)},
			{"Net margin", pct(s.NetMargin)},
			{"Debt/Equity", num(s.DebtToEquity, "%.1f")},
			{"Current ratio", num(s.CurrentRatio, "%.2f")},
			{"Dividend yield", pct(s.DividendYield)},
			{"Payout ratio", pct(s.PayoutRatio)},
		}},
		{"Technicals", [][2]string{
			{"RSI(14)", num(rec.Indicators.RSI14, "%.1f")},
			{"vs SMA50", pct(rec.Indicators.PctVsSMA50)},
			{"vs SMA200", pct(rec.Indicators.PctVsSMA200)},
			{"1m return", pct(rec.Indicators.Return1m)},
			{"6m return", pct(rec.Indicators.Return6m)},
			{"12m return", pct(rec.Indicators.Return12m)},
		}},
		{"Intrinsic value", [][2]string{
			{"Graham number", num(rec.Valuation.GrahamNumber, "%.2f")},
			{"DCF", num(rec.Valuation.DCFValue, "%.2f")},
			{"EPV", num(rec.Valuation.EPVValue, "%.2f")},
			{"Fair value", num(rec.Valuation.FairValue, "%.2f")},
			{"Margin of safety", pct(rec.Valuation.MarginOfSafety)},
			{"Growth assumed", num(rec.Valuation.GrowthAssumption, "%.1f%%")},
		}},
	}

	tw := newTable(os.Stdout)
	for _, sec := range sections {
		fmt.Fprintf(tw, "%s\t\n", strings.ToUpper(sec.title))
		for _, r := range sec.rows {
			fmt.Fprintf(tw, "  %s\t%s\t\n", r[0], r[1])
		}
		fmt.Fprintln(tw, "\t")
	}
	tw.Flush()
}

func pct(v null.Float) string { return num(v, "%+.1f%%") }
