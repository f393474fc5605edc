package collector

import (
	"context"

	"ValueSentinel/internal/model"
)

// History periods understood by every Fetcher.
const (
	Period1Y = "1y"
	Period2Y = "2y"
)

// Fetcher is a snapshot source: it supplies raw fundamentals and price history
// for a single ticker. Implementations may omit fields and fail per ticker.
type Fetcher interface {
	FetchSnapshot(ctx context.Context, ticker string) (model.RawSnapshot, error)
	FetchHistory(ctx context.Context, ticker, period string) (model.PriceHistory, error)
	Name() string
}
