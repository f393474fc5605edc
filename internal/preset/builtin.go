package preset

import (
	"ValueSentinel/internal/screen"
)

func desc(m screen.Metric) *screen.SortKey { return &screen.SortKey{Metric: m, Descending: true} }
func asc(m screen.Metric) *screen.SortKey  { return &screen.SortKey{Metric: m} }

// positivePE excludes loss-makers, whose P/E is either undefined or meaningless.
var positivePE = screen.Above(screen.MetricPE, 0)

func mk(name string, cat Category, description string, sort *screen.SortKey, criteria ...screen.Criterion) Preset {
	return Preset{
		Name:        name,
		Category:    cat,
		Description: description,
		Screen: screen.Screen{
			Name:        name,
			Description: description,
			Criteria:    criteria,
			Sort:        sort,
		},
	}
}

func builtin() []Preset {
	return []Preset{
		// value
		mk("graham", CategoryValue, "Benjamin Graham's defensive investor criteria",
			desc(screen.MetricGrahamMarginOfSafety),
			positivePE,
			screen.Max(screen.MetricPE, 15),
			screen.Max(screen.MetricPB, 1.5),
			screen.Max(screen.MetricPEPBProduct, 22.5),
			screen.Min(screen.MetricCurrentRatio, 2.0),
			screen.Max(screen.MetricDebtToEquity, 50),
			screen.Above(screen.MetricGrahamMarginOfSafety, 0),
		),
		mk("buffett", CategoryValue, "Quality companies at fair prices",
			desc(screen.MetricROE),
			screen.Min(screen.MetricROE, 15),
			screen.Max(screen.MetricDebtToEquity, 50),
			screen.Min(screen.MetricNetMargin, 10),
			positivePE,
			screen.Max(screen.MetricPE, 25),
		),
		mk("deep-value", CategoryValue, "Trading below book at single-digit earnings multiples",
			asc(screen.MetricPB),
			screen.Max(screen.MetricPB, 1.0),
			positivePE,
			screen.Max(screen.MetricPE, 10),
		),
		mk("oversold-value", CategoryValue, "Cheap on earnings and book, technically oversold",
			asc(screen.MetricRSI14),
			positivePE,
			screen.Max(screen.MetricPE, 15),
			screen.Max(screen.MetricPB, 2.0),
			screen.Max(screen.MetricRSI14, 35),
		),

		// income
		mk("dividend", CategoryIncome, "High-yield income stocks with quality filters",
			desc(screen.MetricDividendYield),
			screen.Min(screen.MetricDividendYield, 3.0),
			screen.Max(screen.MetricDebtToEquity, 100),
			screen.Min(screen.MetricROE, 10),
		),
		mk("dividend-growers", CategoryIncome, "Sustainable payouts backed by growing earnings",
			desc(screen.MetricDividendYield),
			screen.Min(screen.MetricDividendYield, 2.0),
			screen.Max(screen.MetricPayoutRatio, 60),
			screen.Min(screen.MetricEarningsGrowth, 5),
			screen.Min(screen.MetricROE, 12),
		),

		// quality
		mk("quality", CategoryQuality, "High returns on equity with fat margins and a clean balance sheet",
			desc(screen.MetricROE),
			screen.Min(screen.MetricROE, 20),
			screen.Min(screen.MetricNetMargin, 15),
			screen.Max(screen.MetricDebtToEquity, 50),
			screen.Min(screen.MetricCurrentRatio, 1.5),
		),
		mk("buyback", CategoryQuality, "Strong free cash flow relative to market value",
			desc(screen.MetricFCFYield),
			screen.Min(screen.MetricFCFYield, 6),
			positivePE,
			screen.Max(screen.MetricPE, 20),
			screen.Max(screen.MetricDebtToEquity, 75),
		),

		// discovery
		mk("fallen-angels", CategoryDiscovery, "Quality stocks down 30% or more from their high",
			asc(screen.MetricPctFrom52wHigh),
			screen.Min(screen.MetricROE, 15),
			screen.Min(screen.MetricNetMargin, 10),
			screen.Max(screen.MetricPctFrom52wHigh, -30),
			screen.Max(screen.MetricDebtToEquity, 100),
		),
		mk("turnaround", CategoryDiscovery, "Beaten down value with room to recover",
			asc(screen.MetricPE),
			positivePE,
			screen.Max(screen.MetricPE, 12),
			screen.Max(screen.MetricPctFrom52wHigh, -25),
			screen.Max(screen.MetricRSI14, 40),
			screen.Min(screen.MetricCurrentRatio, 1.5),
		),
		mk("hidden-gems", CategoryDiscovery, "Out-of-favour small and mid caps with strong fundamentals",
			desc(screen.MetricROE),
			screen.Min(screen.MetricMarketCap, 2e9),
			screen.Max(screen.MetricMarketCap, 10e9),
			positivePE,
			screen.Max(screen.MetricPE, 18),
			screen.Min(screen.MetricROE, 12),
			screen.Max(screen.MetricDebtToEquity, 75),
			screen.Max(screen.MetricRSI14, 40),
			screen.Below(screen.MetricPctVsSMA200, 0),
		),
		mk("momentum-value", CategoryDiscovery, "Reasonably priced stocks already trending up",
			desc(screen.MetricReturn6m),
			positivePE,
			screen.Max(screen.MetricPE, 20),
			screen.Min(screen.MetricReturn6m, 10),
			screen.Above(screen.MetricPctVsSMA200, 0),
			screen.Min(screen.MetricROE, 10),
		),
		mk("short-candidates", CategoryDiscovery, "Expensive, low-return and overbought",
			desc(screen.MetricPE),
			screen.Min(screen.MetricPE, 40),
			screen.Max(screen.MetricROE, 10),
			screen.Min(screen.MetricRSI14, 60),
		),
		mk("oversold", CategoryDiscovery, "Pure technical oversold near the 52-week low",
			asc(screen.MetricRSI14),
			screen.Max(screen.MetricRSI14, 30),
			screen.Max(screen.MetricPctFrom52wLow, 15),
			screen.Below(screen.MetricPctVsSMA200, 0),
		),
	}
}
