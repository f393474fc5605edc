package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "ValueSentinel - quantitative stock screening over a cached metrics store",
	Long: `ValueSentinel screens a universe of stocks against value, quality and
technical criteria. Screens read only from the local metrics cache; the cache
is filled by "sentinel refresh" or by the daily scheduler in "sentinel serve".

Examples:
  sentinel refresh --universe dow30
  sentinel screen --preset graham
  sentinel screen --where "pe<=15" --where "roe>=15" --sort -roe
  sentinel analyze AAPL
  sentinel serve`,
	SilenceUsage: true,
}

// Execute runs the root command. It is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "configs/config.yaml", "config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
