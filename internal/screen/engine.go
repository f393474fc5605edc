package screen

import (
	"sort"
	"time"

	"github.com/guregu/null/v6"

	"ValueSentinel/internal/model"
)

// CheckResult is the outcome of one criterion for one ticker.
type CheckResult struct {
	Criterion Criterion  `json:"criterion"`
	Actual    null.Float `json:"actual"`
	Passed    bool       `json:"passed"`
}

// Result is the evaluation of one ticker against a screen.
type Result struct {
	Ticker    string              `json:"ticker"`
	Record    model.MetricsRecord `json:"record"`
	Checks    []CheckResult       `json:"checks"`
	Passed    bool                `json:"passed"`
	Signal    model.Signal        `json:"signal"`
	FetchedAt time.Time           `json:"fetched_at"`
	Stale     bool                `json:"stale"`
}

// Signal thresholds, checked in priority order.
var signalRules = []struct {
	Signal model.Signal
	Match  func(rsi, pos null.Float) bool
}{
	{model.SignalStrongBuy, func(rsi, _ null.Float) bool {
		return rsi.Valid && rsi.Float64 < 20
	}},
	{model.SignalBuy, func(rsi, pos null.Float) bool {
		return (rsi.Valid && rsi.Float64 < 30) || (pos.Valid && pos.Float64 <= 0.10)
	}},
	{model.SignalWatch, func(rsi, pos null.Float) bool {
		return (rsi.Valid && rsi.Float64 >= 30 && rsi.Float64 < 40) || (pos.Valid && pos.Float64 <= 0.20)
	}},
}

// Classify maps RSI and 52-week range position to a signal; first match wins.
func Classify(rec *model.MetricsRecord) model.Signal {
	rsi := rec.Indicators.RSI14
	pos := rec.Indicators.Position52w
	for _, r := range signalRules {
		if r.Match(rsi, pos) {
			return r.Signal
		}
	}
	return model.SignalNeutral
}

// Evaluate checks every criterion independently. A criterion over an
// undefined metric fails. Signal is only classified for passing records.
func Evaluate(rec model.MetricsRecord, s Screen) Result {
	res := Result{
		Ticker: rec.Ticker,
		Record: rec,
		Checks: make([]CheckResult, len(s.Criteria)),
		Passed: true,
		Signal: model.SignalNone,
	}
	for i, c := range s.Criteria {
		v := c.Metric.Value(&rec)
		ok := c.Check(v)
		res.Checks[i] = CheckResult{Criterion: c, Actual: v, Passed: ok}
		if !ok {
			res.Passed = false
		}
	}
	if res.Passed {
		res.Signal = Classify(&rec)
	}
	return res
}

// Run evaluates every cache entry, keeps passing tickers, orders them and
// applies the limit. limit > 0 overrides the screen's own limit.
func Run(entries []model.CacheEntry, s Screen, limit int, now time.Time, ttl time.Duration) []Result {
	results := make([]Result, 0, len(entries))
	for _, e := range entries {
		res := Evaluate(e.Record, s)
		if !res.Passed {
			continue
		}
		res.FetchedAt = e.FetchedAt
		res.Stale = !e.IsFresh(now, ttl)
		results = append(results, res)
	}

	Sort(results, s.Sort)

	if limit <= 0 {
		limit = s.Limit
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// Sort orders results by key with ticker as the tie-break. Undefined values
// sort last in either direction. A nil key orders by ticker only.
func Sort(results []Result, key *SortKey) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := &results[i], &results[j]
		if key != nil && key.Metric.Valid() {
			va := key.Metric.Value(&a.Record)
			vb := key.Metric.Value(&b.Record)
			switch {
			case va.Valid && !vb.Valid:
				return true
			case !va.Valid && vb.Valid:
				return false
			case va.Valid && vb.Valid && va.Float64 != vb.Float64:
				if key.Descending {
					return va.Float64 > vb.Float64
				}
				return va.Float64 < vb.Float64
			}
		}
		return a.Ticker < b.Ticker
	})
}
