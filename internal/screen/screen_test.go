package screen

import (
	"errors"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ValueSentinel/internal/model"
)

func record(ticker string, mutate func(r *model.MetricsRecord)) model.MetricsRecord {
	r := model.MetricsRecord{Ticker: ticker}
	if mutate != nil {
		mutate(&r)
	}
	return r
}

func withRSI(rsi float64) func(r *model.MetricsRecord) {
	return func(r *model.MetricsRecord) { r.Indicators.RSI14 = null.FloatFrom(rsi) }
}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		in   string
		want Metric
	}{
		{"pe", MetricPE},
		{"PE_RATIO", MetricPE},
		{"rsi", MetricRSI14},
		{"rsi-14", MetricRSI14},
		{" mos ", MetricMarginOfSafety},
		{"div", MetricDividendYield},
		{"graham_mos", MetricGrahamMarginOfSafety},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := ParseMetric(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m)
		})
	}

	_, err := ParseMetric("moon_phase")
	var ice *model.InvalidCriterionError
	require.True(t, errors.As(err, &ice))
}

func TestMetricsTableComplete(t *testing.T) {
	seen := map[string]bool{}
	for id := MetricUnknown + 1; id < metricCount; id++ {
		def := metricDefs[id]
		require.NotEmpty(t, def.name, "metric %d has no name", id)
		require.NotNil(t, def.get, "metric %s has no accessor", def.name)
		assert.False(t, seen[def.name], "duplicate metric name %s", def.name)
		seen[def.name] = true
	}
	assert.Len(t, Metrics(), int(metricCount-1))
}

func TestParseCriterion(t *testing.T) {
	tests := []struct {
		expr string
		want Criterion
	}{
		{"pe<=15", Max(MetricPE, 15)},
		{"rsi_14 < 30", Below(MetricRSI14, 30)},
		{"roe>=15", Min(MetricROE, 15)},
		{"pct_from_52w_high<=-30", Max(MetricPctFrom52wHigh, -30)},
		{"market_cap>=2B", Min(MetricMarketCap, 2e9)},
		{"dividend_yield>3%", Above(MetricDividendYield, 3)},
		{"price~100:5", Within(MetricPrice, 100, 5)},
		{"position_52w=0.5", Criterion{Metric: MetricPosition52w, Op: OpEQ, Value: 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			c, err := ParseCriterion(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c)
		})
	}
}

func TestParseCriterion_Invalid(t *testing.T) {
	for _, expr := range []string{"", "pe", "unknown<=3", "pe<=abc", "price~100", "price~100:-1", "<=5"} {
		t.Run(expr, func(t *testing.T) {
			_, err := ParseCriterion(expr)
			var ice *model.InvalidCriterionError
			assert.True(t, errors.As(err, &ice), "expected InvalidCriterionError, got %v", err)
		})
	}
}

func TestNewScreen_RejectsInvalid(t *testing.T) {
	_, err := NewScreen("bad", []Criterion{{Metric: Metric(999), Op: OpGTE, Value: 1}}, nil, 0)
	var ice *model.InvalidCriterionError
	require.True(t, errors.As(err, &ice))

	_, err = NewScreen("bad-op", []Criterion{{Metric: MetricPE, Op: "!=", Value: 1}}, nil, 0)
	require.True(t, errors.As(err, &ice))

	_, err = NewScreen("bad-limit", nil, nil, -1)
	require.True(t, errors.As(err, &ice))

	_, err = ParseScreen("bad-sort", []string{"pe<=15"}, "-nope", 0)
	require.True(t, errors.As(err, &ice))
}

func TestCheck_FailClosed(t *testing.T) {
	ops := []Criterion{
		Min(MetricPE, 0), Max(MetricPE, 0), Above(MetricPE, -1e9), Below(MetricPE, 1e9),
		{Metric: MetricPE, Op: OpEQ, Value: 0}, Within(MetricPE, 0, 1e6),
	}
	for id := MetricUnknown + 1; id < metricCount; id++ {
		for _, c := range ops {
			c.Metric = id
			res := Evaluate(record("X", nil), mustScreen(t, c))
			assert.False(t, res.Passed, "%s passed on undefined metric", c)
			assert.Equal(t, model.SignalNone, res.Signal)
		}
	}
}

func TestCheck_Operators(t *testing.T) {
	v := null.FloatFrom(10)
	assert.True(t, Min(MetricPE, 10).Check(v))
	assert.False(t, Above(MetricPE, 10).Check(v))
	assert.True(t, Max(MetricPE, 10).Check(v))
	assert.False(t, Below(MetricPE, 10).Check(v))
	assert.True(t, Criterion{Metric: MetricPE, Op: OpEQ, Value: 10}.Check(v))
	assert.True(t, Within(MetricPE, 10.5, 5).Check(v))
	assert.False(t, Within(MetricPE, 12, 5).Check(v))
}

func mustScreen(t *testing.T, criteria ...Criterion) Screen {
	t.Helper()
	s, err := NewScreen("test", criteria, nil, 0)
	require.NoError(t, err)
	return s
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		rsi  null.Float
		pos  null.Float
		want model.Signal
	}{
		{"deeply oversold", null.FloatFrom(18), null.FloatFrom(0.9), model.SignalStrongBuy},
		{"oversold", null.FloatFrom(25), null.FloatFrom(0.9), model.SignalBuy},
		{"near low", null.FloatFrom(55), null.FloatFrom(0.10), model.SignalBuy},
		{"near low no rsi", null.Float{}, null.FloatFrom(0.05), model.SignalBuy},
		{"rsi 30 boundary", null.FloatFrom(30), null.FloatFrom(0.9), model.SignalWatch},
		{"lower fifth", null.FloatFrom(60), null.FloatFrom(0.2), model.SignalWatch},
		{"rsi 40 boundary", null.FloatFrom(40), null.FloatFrom(0.9), model.SignalNeutral},
		{"nothing defined", null.Float{}, null.Float{}, model.SignalNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := record("X", func(r *model.MetricsRecord) {
				r.Indicators.RSI14 = tt.rsi
				r.Indicators.Position52w = tt.pos
			})
			assert.Equal(t, tt.want, Classify(&r))
		})
	}
}

func TestRun_SortLimitDeterminism(t *testing.T) {
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	ttl := 24 * time.Hour
	entries := []model.CacheEntry{
		{Record: record("DDD", withRSI(50)), FetchedAt: now},
		{Record: record("AAA", withRSI(25)), FetchedAt: now},
		{Record: record("CCC", withRSI(25)), FetchedAt: now.Add(-48 * time.Hour)},
		{Record: record("BBB", withRSI(15)), FetchedAt: now},
		{Record: record("EEE", nil), FetchedAt: now},
	}

	s, err := ParseScreen("custom", []string{"rsi<60"}, "rsi", 0)
	require.NoError(t, err)

	first := Run(entries, s, 0, now, ttl)
	require.Len(t, first, 4)
	assert.Equal(t, []string{"BBB", "AAA", "CCC", "DDD"}, tickers(first))
	assert.True(t, first[2].Stale)
	assert.False(t, first[0].Stale)
	assert.Equal(t, model.SignalStrongBuy, first[0].Signal)

	for i := 0; i < 5; i++ {
		assert.Equal(t, tickers(first), tickers(Run(entries, s, 0, now, ttl)))
	}

	// Limit truncates after sorting.
	limited := Run(entries, s.WithSort(&SortKey{Metric: MetricRSI14, Descending: true}), 2, now, ttl)
	assert.Equal(t, []string{"DDD", "AAA"}, tickers(limited))
}

func TestSort_UndefinedLast(t *testing.T) {
	results := []Result{
		{Ticker: "B", Record: record("B", nil)},
		{Ticker: "A", Record: record("A", withRSI(10))},
		{Ticker: "C", Record: record("C", withRSI(90))},
	}
	Sort(results, &SortKey{Metric: MetricRSI14, Descending: true})
	assert.Equal(t, []string{"C", "A", "B"}, tickers(results))

	Sort(results, nil)
	assert.Equal(t, []string{"A", "B", "C"}, tickers(results))
}

func tickers(rs []Result) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Ticker
	}
	return out
}
