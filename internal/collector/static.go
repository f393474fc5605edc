package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/guregu/null/v6"

	"ValueSentinel/internal/model"
)

// StaticFetcher serves fixed snapshots from memory. It backs tests and offline demos.
type StaticFetcher struct {
	mu        sync.Mutex
	snapshots map[string]model.RawSnapshot
	histories map[string]model.PriceHistory
	failures  map[string]int // remaining forced failures per ticker, -1 = always
	calls     map[string]int
}

// NewStaticFetcher creates an empty StaticFetcher.
func NewStaticFetcher() *StaticFetcher {
	return &StaticFetcher{
		snapshots: make(map[string]model.RawSnapshot),
		histories: make(map[string]model.PriceHistory),
		failures:  make(map[string]int),
		calls:     make(map[string]int),
	}
}

func (f *StaticFetcher) Name() string { return "static" }

// Set registers the snapshot and history served for a ticker.
func (f *StaticFetcher) Set(snap model.RawSnapshot, history model.PriceHistory) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.ToUpper(snap.Ticker)
	f.snapshots[key] = snap
	history.Ticker = key
	f.histories[key] = history
}

// FailAlways makes every fetch for the ticker return an error.
func (f *StaticFetcher) FailAlways(ticker string) {
	f.FailTimes(ticker, -1)
}

// FailTimes makes the next n snapshot fetches for the ticker fail.
func (f *StaticFetcher) FailTimes(ticker string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[strings.ToUpper(ticker)] = n
}

// Calls returns how many snapshot fetches were made for the ticker.
func (f *StaticFetcher) Calls(ticker string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[strings.ToUpper(ticker)]
}

func (f *StaticFetcher) FetchSnapshot(_ context.Context, ticker string) (model.RawSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.ToUpper(ticker)
	f.calls[key]++

	if n, ok := f.failures[key]; ok && n != 0 {
		if n > 0 {
			f.failures[key] = n - 1
		}
		return model.RawSnapshot{}, errors.New("static: forced failure")
	}
	snap, ok := f.snapshots[key]
	if !ok {
		return model.RawSnapshot{}, fmt.Errorf("static: no snapshot for %s", key)
	}
	return snap.Clone(), nil
}

func (f *StaticFetcher) FetchHistory(_ context.Context, ticker, _ string) (model.PriceHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.histories[strings.ToUpper(ticker)]
	if !ok {
		return model.PriceHistory{Ticker: strings.ToUpper(ticker)}, nil
	}
	h.Points = append([]model.PricePoint(nil), h.Points...)
	return h, nil
}

// SeriesHistory builds a daily history ending today from a close series.
func SeriesHistory(ticker string, closes []float64) model.PriceHistory {
	end := time.Now().UTC().Truncate(24 * time.Hour)
	points := make([]model.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = model.PricePoint{
			Date:  end.AddDate(0, 0, -(len(closes) - 1 - i)),
			Close: c,
		}
	}
	return model.PriceHistory{Ticker: ticker, Points: points}
}

// RSISeries returns n closes ending at `last` whose trailing 14 deltas produce
// the requested RSI: one gain followed by thirteen equal losses, flat before.
func RSISeries(n int, last, rsi float64) []float64 {
	const window = 14
	const move = 10.0
	if n < window+1 {
		n = window + 1
	}
	gain := rsi / 100 * move
	loss := (move - gain) / (window - 1)

	closes := make([]float64, n)
	closes[n-1] = last
	for i := n - 1; i > n-window; i-- {
		closes[i-1] = closes[i] + loss
	}
	closes[n-window-1] = closes[n-window] - gain
	for i := n - window - 2; i >= 0; i-- {
		closes[i] = closes[n-window-1]
	}
	return closes
}

// Quote is a convenience for building snapshots in tests.
func Quote(v float64) null.Float { return null.FloatFrom(v) }
