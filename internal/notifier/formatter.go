package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	"ValueSentinel/internal/model"
	"ValueSentinel/internal/refresh"
	"ValueSentinel/internal/screen"
)

// FormatRefreshSummary formats a refresh run for Telegram.
func FormatRefreshSummary(s *refresh.Summary) string {
	var b strings.Builder

	icon := "✅"
	switch {
	case s.Cancelled:
		icon = "⏹"
	case s.Failed > 0:
		icon = "⚠️"
	}
	b.WriteString(fmt.Sprintf("%s <b>ValueSentinel refresh</b> | %s\n\n", icon, s.FinishedAt.Format("2006-01-02 15:04")))
	if s.Universe != "" {
		b.WriteString(fmt.Sprintf("Universe: %s\n", html.EscapeString(s.Universe)))
	}
	b.WriteString(fmt.Sprintf("Tickers: %d\n", s.Total))
	b.WriteString(fmt.Sprintf("Succeeded: %d | Failed: %d | Skipped: %d\n", s.Succeeded, s.Failed, s.Skipped))
	b.WriteString(fmt.Sprintf("Duration: %s", s.Duration().Round(time.Second)))
	if s.RetryPasses > 0 {
		b.WriteString(fmt.Sprintf(" (%d retry passes)", s.RetryPasses))
	}
	b.WriteString("\n")

	if len(s.FailedTickers) > 0 {
		const shown = 20
		list := s.FailedTickers
		more := ""
		if len(list) > shown {
			more = fmt.Sprintf(" +%d more", len(list)-shown)
			list = list[:shown]
		}
		b.WriteString(fmt.Sprintf("\nFailed: %s%s\n", html.EscapeString(strings.Join(list, ", ")), more))
	}
	if s.Cancelled {
		b.WriteString("\nRun was cancelled before completion.\n")
	}
	return b.String()
}

// FormatScreenDigest formats the top passing results of a screen.
func FormatScreenDigest(title string, results []screen.Result, max int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %d matches\n\n", html.EscapeString(title), len(results)))
	if len(results) == 0 {
		b.WriteString("No tickers passed.\n")
		return b.String()
	}

	shown := results
	if max > 0 && len(shown) > max {
		shown = shown[:max]
	}
	for _, r := range shown {
		b.WriteString(fmt.Sprintf("%s <b>%s</b> %s | RSI %s | MoS %s",
			signalIcon(r.Signal),
			html.EscapeString(r.Ticker),
			fmtNum(r.Record.Price(), "%.2f"),
			fmtNum(r.Record.Indicators.RSI14, "%.0f"),
			fmtNum(r.Record.Valuation.MarginOfSafety, "%+.0f%%"),
		))
		if r.Stale {
			b.WriteString(" (stale)")
		}
		b.WriteString("\n")
	}
	if len(results) > len(shown) {
		b.WriteString(fmt.Sprintf("… and %d more\n", len(results)-len(shown)))
	}
	return b.String()
}

func signalIcon(s model.Signal) string {
	switch s {
	case model.SignalStrongBuy:
		return "🟢"
	case model.SignalBuy:
		return "🟩"
	case model.SignalWatch:
		return "🟨"
	default:
		return "⚪"
	}
}

func fmtNum(v null.Float, format string) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf(format, v.Float64)
}
