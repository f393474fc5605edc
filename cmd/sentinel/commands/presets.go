package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the built-in screens",
	RunE:  runPresets,
}

var universesCmd = &cobra.Command{
	Use:   "universes",
	Short: "List the available ticker universes",
	RunE:  runUniverses,
}

var presetsJSON bool

func init() {
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(universesCmd)

	presetsCmd.Flags().BoolVar(&presetsJSON, "json", false, "JSON output")
}

func runPresets(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	presets := a.svc.ListPresets()
	if presetsJSON {
		return printJSON(presets)
	}

	tw := newTable(os.Stdout)
	fmt.Fprintln(tw, "NAME\tCATEGORY\tDESCRIPTION\tCRITERIA\t")
	for _, p := range presets {
		crit := make([]string, len(p.Screen.Criteria))
		for i, c := range p.Screen.Criteria {
			crit[i] = c.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", p.Name, p.Category, p.Description, strings.Join(crit, "; "))
	}
	return tw.Flush()
}

func runUniverses(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	names, err := a.svc.Universes()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Printf("No universe files in %s\n", a.cfg.UniverseDir)
		return nil
	}
	for _, n := range names {
		_, tickers, err := a.svc.ResolveUniverse(n)
		if err != nil {
			return err
		}
		fmt.Printf("%-20s %d tickers\n", n, len(tickers))
	}
	return nil
}
