package screen

import (
	"sort"
	"strings"

	"github.com/guregu/null/v6"

	"ValueSentinel/internal/model"
)

// Metric identifies one screenable value on a MetricsRecord.
// The set is closed: criteria can only reference metrics declared here.
type Metric int

const (
	MetricUnknown Metric = iota

	MetricPrice
	MetricMarketCap
	MetricPE
	MetricPEForward
	MetricPB
	MetricPS
	MetricPEG
	MetricEVEBITDA
	MetricPEPBProduct
	MetricGrossMargin
	MetricOperatingMargin
	MetricNetMargin
	MetricROE
	MetricROA
	MetricDebtToEquity
	MetricCurrentRatio
	MetricRevenueGrowth
	MetricEarningsGrowth
	MetricDividendYield
	MetricPayoutRatio
	MetricFCFYield
	MetricInsiderOwnership

	MetricRSI14
	MetricSMA50
	MetricSMA200
	MetricPctVsSMA50
	MetricPctVsSMA200
	MetricPctFrom52wHigh
	MetricPctFrom52wLow
	MetricPosition52w
	MetricReturn1m
	MetricReturn6m
	MetricReturn12m

	MetricGrahamNumber
	MetricGrahamMarginOfSafety
	MetricDCFValue
	MetricEPVValue
	MetricFairValue
	MetricMarginOfSafety

	metricCount
)

type metricDef struct {
	name  string
	get   func(r *model.MetricsRecord) null.Float
	alias []string
}

var metricDefs = [metricCount]metricDef{
	MetricPrice:           {"price", func(r *model.MetricsRecord) null.Float { return r.Snapshot.Price }, nil},
	MetricMarketCap:       {"market_cap", func(r *model.MetricsRecord) null.Float { return r.Snapshot.MarketCap }, []string{"cap", "mcap"}},
	MetricPE:              {"pe", func(r *model.MetricsRecord) null.Float { return r.PE }, []string{"pe_ratio", "pe_trailing"}},
	MetricPEForward:       {"pe_forward", func(r *model.MetricsRecord) null.Float { return r.Snapshot.PEForward }, nil},
	MetricPB:              {"pb", func(r *model.MetricsRecord) null.Float { return r.PB }, []string{"pb_ratio"}},
	MetricPS:              {"ps", func(r *model.MetricsRecord) null.Float { return r.Snapshot.PS }, []string{"ps_ratio"}},
	MetricPEG:             {"peg", func(r *model.MetricsRecord) null.Float { return r.Snapshot.PEG }, []string{"peg_ratio"}},
	MetricEVEBITDA:        {"ev_ebitda", func(r *model.MetricsRecord) null.Float { return r.Snapshot.EVEBITDA }, nil},
	MetricPEPBProduct:     {"pe_pb_product", func(r *model.MetricsRecord) null.Float { return r.PEPBProduct }, []string{"pe_pb"}},
	MetricGrossMargin:     {"gross_margin", func(r *model.MetricsRecord) null.Float { return r.Snapshot.GrossMargin }, nil},
	MetricOperatingMargin: {"operating_margin", func(r *model.MetricsRecord) null.Float { return r.Snapshot.OperatingMargin }, nil},
	MetricNetMargin:       {"net_margin", func(r *model.MetricsRecord) null.Float { return r.Snapshot.NetMargin }, []string{"margin", "profit_margin"}},
	MetricROE:             {"roe", func(r *model.MetricsRecord) null.Float { return r.Snapshot.ROE }, nil},
	MetricROA:             {"roa", func(r *model.MetricsRecord) null.Float { return r.Snapshot.ROA }, nil},
	MetricDebtToEquity:    {"debt_to_equity", func(r *model.MetricsRecord) null.Float { return r.Snapshot.DebtToEquity }, []string{"de", "debt_equity"}},
	MetricCurrentRatio:    {"current_ratio", func(r *model.MetricsRecord) null.Float { return r.Snapshot.CurrentRatio }, []string{"cr"}},
	MetricRevenueGrowth:   {"revenue_growth", func(r *model.MetricsRecord) null.Float { return r.Snapshot.RevenueGrowth }, nil},
	MetricEarningsGrowth:  {"earnings_growth", func(r *model.MetricsRecord) null.Float { return r.Snapshot.EarningsGrowth }, nil},
	MetricDividendYield:   {"dividend_yield", func(r *model.MetricsRecord) null.Float { return r.Snapshot.DividendYield }, []string{"div", "yield"}},
	MetricPayoutRatio:     {"payout_ratio", func(r *model.MetricsRecord) null.Float { return r.Snapshot.PayoutRatio }, []string{"payout"}},
	MetricFCFYield:        {"fcf_yield", func(r *model.MetricsRecord) null.Float { return r.FCFYield }, nil},
	MetricInsiderOwnership: {"insider_ownership", func(r *model.MetricsRecord) null.Float { return r.Snapshot.InsiderOwnership },
		[]string{"insiders"}},

	MetricRSI14:          {"rsi_14", func(r *model.MetricsRecord) null.Float { return r.Indicators.RSI14 }, []string{"rsi"}},
	MetricSMA50:          {"sma_50", func(r *model.MetricsRecord) null.Float { return r.Indicators.SMA50 }, []string{"ma50"}},
	MetricSMA200:         {"sma_200", func(r *model.MetricsRecord) null.Float { return r.Indicators.SMA200 }, []string{"ma200"}},
	MetricPctVsSMA50:     {"pct_vs_sma_50", func(r *model.MetricsRecord) null.Float { return r.Indicators.PctVsSMA50 }, nil},
	MetricPctVsSMA200:    {"pct_vs_sma_200", func(r *model.MetricsRecord) null.Float { return r.Indicators.PctVsSMA200 }, nil},
	MetricPctFrom52wHigh: {"pct_from_52w_high", func(r *model.MetricsRecord) null.Float { return r.Indicators.PctFrom52wHigh }, []string{"from_high"}},
	MetricPctFrom52wLow:  {"pct_from_52w_low", func(r *model.MetricsRecord) null.Float { return r.Indicators.PctFrom52wLow }, []string{"from_low"}},
	MetricPosition52w:    {"position_52w", func(r *model.MetricsRecord) null.Float { return r.Indicators.Position52w }, []string{"range_position"}},
	MetricReturn1m:       {"return_1m", func(r *model.MetricsRecord) null.Float { return r.Indicators.Return1m }, nil},
	MetricReturn6m:       {"return_6m", func(r *model.MetricsRecord) null.Float { return r.Indicators.Return6m }, nil},
	MetricReturn12m:      {"return_12m", func(r *model.MetricsRecord) null.Float { return r.Indicators.Return12m }, []string{"return_1y"}},

	MetricGrahamNumber: {"graham_number", func(r *model.MetricsRecord) null.Float { return r.Valuation.GrahamNumber }, []string{"graham"}},
	MetricGrahamMarginOfSafety: {"graham_margin_of_safety", func(r *model.MetricsRecord) null.Float { return r.Valuation.GrahamMarginOfSafety },
		[]string{"graham_mos"}},
	MetricDCFValue:       {"dcf_value", func(r *model.MetricsRecord) null.Float { return r.Valuation.DCFValue }, []string{"dcf"}},
	MetricEPVValue:       {"epv_value", func(r *model.MetricsRecord) null.Float { return r.Valuation.EPVValue }, []string{"epv"}},
	MetricFairValue:      {"fair_value", func(r *model.MetricsRecord) null.Float { return r.Valuation.FairValue }, nil},
	MetricMarginOfSafety: {"margin_of_safety", func(r *model.MetricsRecord) null.Float { return r.Valuation.MarginOfSafety }, []string{"mos"}},
}

var metricsByName = func() map[string]Metric {
	m := make(map[string]Metric)
	for id := MetricUnknown + 1; id < metricCount; id++ {
		def := metricDefs[id]
		m[def.name] = id
		for _, a := range def.alias {
			m[a] = id
		}
	}
	return m
}()

// ParseMetric resolves a canonical metric name or alias. Case and dashes are ignored.
func ParseMetric(name string) (Metric, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	if m, ok := metricsByName[key]; ok {
		return m, nil
	}
	return MetricUnknown, &model.InvalidCriterionError{Input: name, Reason: "unknown metric"}
}

// Valid reports whether m is a declared metric.
func (m Metric) Valid() bool { return m > MetricUnknown && m < metricCount }

func (m Metric) String() string {
	if !m.Valid() {
		return "unknown"
	}
	return metricDefs[m].name
}

// Value reads the metric from a record.
func (m Metric) Value(r *model.MetricsRecord) null.Float {
	if !m.Valid() {
		return null.Float{}
	}
	return metricDefs[m].get(r)
}

// MarshalText encodes the canonical metric name.
func (m Metric) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// Metrics lists every canonical metric name, sorted.
func Metrics() []string {
	names := make([]string, 0, metricCount-1)
	for id := MetricUnknown + 1; id < metricCount; id++ {
		names = append(names, metricDefs[id].name)
	}
	sort.Strings(names)
	return names
}
