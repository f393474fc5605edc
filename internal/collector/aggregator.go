package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	"ValueSentinel/internal/calculator"
	"ValueSentinel/internal/logger"
	"ValueSentinel/internal/model"
	"ValueSentinel/internal/valuation"
)

// Aggregator fetches one ticker from the snapshot source and merges the raw
// snapshot with derived indicators and valuation into a MetricsRecord.
type Aggregator struct {
	Fetcher Fetcher
	Params  valuation.Params
	Period  string
	Now     func() time.Time
	log     *logger.Logger
}

// NewAggregator creates an Aggregator using a two-year history window so the
// 12-month return has a close one full trading year back.
func NewAggregator(fetcher Fetcher, params valuation.Params, log *logger.Logger) *Aggregator {
	return &Aggregator{
		Fetcher: fetcher,
		Params:  params,
		Period:  Period2Y,
		Now:     time.Now,
		log:     log.WithField("source", fetcher.Name()),
	}
}

// Collect fetches the snapshot and history for a ticker and derives all metrics.
// Any source failure or malformed payload is returned as a *model.FetchError.
func (a *Aggregator) Collect(ctx context.Context, ticker string) (model.MetricsRecord, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	snap, err := a.Fetcher.FetchSnapshot(ctx, ticker)
	if err != nil {
		return model.MetricsRecord{}, model.NewFetchError(ticker, "snapshot", err)
	}
	if snap.Ticker == "" {
		snap.Ticker = ticker
	}
	if !strings.EqualFold(snap.Ticker, ticker) {
		return model.MetricsRecord{}, model.NewFetchError(ticker, "snapshot",
			fmt.Errorf("source returned ticker %q", snap.Ticker))
	}
	snap.Ticker = ticker

	history, err := a.Fetcher.FetchHistory(ctx, ticker, a.Period)
	if err != nil {
		// Fundamentals alone still produce a usable record.
		a.log.WithField("ticker", ticker).WithError(err).Warn("history unavailable, technical indicators undefined")
		history = model.PriceHistory{Ticker: ticker}
	}

	if !snap.Price.Valid {
		if last, ok := history.Last(); ok {
			snap.Price = null.FloatFrom(last)
		}
	}
	if err := validateSnapshot(snap); err != nil {
		return model.MetricsRecord{}, model.NewFetchError(ticker, "snapshot", err)
	}

	return Build(snap, history, a.Params, a.Now()), nil
}

var errNoPrice = errors.New("malformed payload: no usable price")

func validateSnapshot(snap model.RawSnapshot) error {
	if !snap.Price.Valid || snap.Price.Float64 <= 0 {
		return errNoPrice
	}
	return nil
}

// Build derives indicators, valuation and ratios from already-fetched data.
func Build(snap model.RawSnapshot, history model.PriceHistory, params valuation.Params, computedAt time.Time) model.MetricsRecord {
	snap = snap.Clone()
	rec := model.MetricsRecord{
		Ticker:     snap.Ticker,
		Snapshot:   snap,
		Indicators: calculator.DeriveIndicators(history, snap),
		Valuation:  valuation.Derive(snap, snap.Price, params),
		ComputedAt: computedAt,
	}

	rec.PE = snap.PETrailing
	if !rec.PE.Valid {
		rec.PE = ratio(snap.Price, snap.EPS)
	}
	rec.PB = snap.PB
	if !rec.PB.Valid {
		rec.PB = ratio(snap.Price, snap.BookValuePerShare)
	}
	if rec.PE.Valid && rec.PB.Valid && rec.PE.Float64 > 0 && rec.PB.Float64 > 0 {
		rec.PEPBProduct = null.FloatFrom(rec.PE.Float64 * rec.PB.Float64)
	}
	if r := ratio(snap.FreeCashFlow, snap.MarketCap); r.Valid {
		rec.FCFYield = null.FloatFrom(r.Float64 * 100)
	}
	return rec
}

// ratio returns num/den when both are defined and den is positive.
func ratio(num, den null.Float) null.Float {
	if !num.Valid || !den.Valid || den.Float64 <= 0 {
		return null.Float{}
	}
	return null.FloatFrom(num.Float64 / den.Float64)
}
