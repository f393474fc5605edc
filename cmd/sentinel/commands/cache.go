package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the metrics cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache size and freshness",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached entry",
	RunE:  runCacheClear,
}

var cacheJSON bool

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	cacheStatsCmd.Flags().BoolVar(&cacheJSON, "json", false, "JSON output")
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.svc.CacheStats(ctx)
	if err != nil {
		return err
	}
	if cacheJSON {
		return printJSON(st)
	}

	tw := newTable(os.Stdout)
	fmt.Fprintf(tw, "Backend\t%s\t\n", st.Backend)
	fmt.Fprintf(tw, "Entries\t%d\t\n", st.Total)
	fmt.Fprintf(tw, "Fresh\t%d\t\n", st.Fresh)
	fmt.Fprintf(tw, "Stale\t%d\t\n", st.Stale)
	fmt.Fprintf(tw, "TTL\t%s\t\n", st.TTL)
	if st.Oldest != nil {
		fmt.Fprintf(tw, "Oldest\t%s\t\n", st.Oldest.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(tw, "Newest\t%s\t\n", st.Newest.Local().Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.svc.ClearCache(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d entries\n", n)
	return nil
}
