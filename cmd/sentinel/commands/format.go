package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guregu/null/v6"
)

// printJSON writes v as indented JSON to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// num formats an optional value, printing "-" when undefined.
func num(v null.Float, format string) string {
	if !v.Valid {
		return "-"
	}
	return fmt.Sprintf(format, v.Float64)
}

// big formats large magnitudes with K/M/B/T suffixes.
func big(v null.Float) string {
	if !v.Valid {
		return "-"
	}
	x := v.Float64
	abs := x
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1e12:
		return fmt.Sprintf("%.2fT", x/1e12)
	case abs >= 1e9:
		return fmt.Sprintf("%.2fB", x/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.2fM", x/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.2fK", x/1e3)
	}
	return fmt.Sprintf("%.2f", x)
}

func age(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(d.Hours()/24))
}
