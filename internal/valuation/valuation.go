// Package valuation derives fair-value estimates and margins of safety from
// reported fundamentals. Every function is pure; missing or non-positive
// inputs produce an undefined value rather than an error.
package valuation

import (
	"math"

	"github.com/guregu/null/v6"

	"ValueSentinel/internal/model"
)

// GrahamNumber returns sqrt(22.5 * EPS * BVPS). Both inputs must be positive.
func GrahamNumber(eps, bvps null.Float) null.Float {
	if !eps.Valid || !bvps.Valid || eps.Float64 <= 0 || bvps.Float64 <= 0 {
		return null.Float{}
	}
	return null.FloatFrom(math.Sqrt(22.5 * eps.Float64 * bvps.Float64))
}

// MarginOfSafety returns (fairValue - price) / fairValue * 100.
func MarginOfSafety(fairValue, price null.Float) null.Float {
	if !fairValue.Valid || !price.Valid || fairValue.Float64 <= 0 || price.Float64 <= 0 {
		return null.Float{}
	}
	return null.FloatFrom((fairValue.Float64 - price.Float64) / fairValue.Float64 * 100)
}

// RevenueCAGR returns the compound annual growth rate across annual revenues (oldest first).
func RevenueCAGR(revenues []float64) null.Float {
	if len(revenues) < 2 {
		return null.Float{}
	}
	first, last := revenues[0], revenues[len(revenues)-1]
	if first <= 0 || last <= 0 {
		return null.Float{}
	}
	years := float64(len(revenues) - 1)
	return null.FloatFrom(math.Pow(last/first, 1/years) - 1)
}

// GrowthAssumption picks the DCF growth rate: explicit override, revenue CAGR,
// reported revenue growth, then the default. The result is clamped to the band.
func GrowthAssumption(snap model.RawSnapshot, p Params) float64 {
	g := p.DefaultGrowth
	switch {
	case p.GrowthOverride.Valid:
		g = p.GrowthOverride.Float64
	case RevenueCAGR(snap.Revenues).Valid:
		g = RevenueCAGR(snap.Revenues).Float64
	case snap.RevenueGrowth.Valid:
		g = snap.RevenueGrowth.Float64 / 100
	}
	return math.Min(math.Max(g, p.GrowthFloor), p.GrowthCap)
}

// DCFValue projects free cash flow over the horizon at growth g, adds a
// perpetuity-growth terminal value and discounts everything back per share.
func DCFValue(fcf, shares null.Float, g float64, p Params) null.Float {
	if !fcf.Valid || !shares.Valid || fcf.Float64 <= 0 || shares.Float64 <= 0 {
		return null.Float{}
	}
	if p.Validate() != nil {
		return null.Float{}
	}

	r := p.DiscountRate
	cash := fcf.Float64
	pv := 0.0
	for year := 1; year <= p.HorizonYears; year++ {
		cash *= 1 + g
		pv += cash / math.Pow(1+r, float64(year))
	}
	terminal := cash * (1 + p.TerminalGrowth) / (r - p.TerminalGrowth)
	pv += terminal / math.Pow(1+r, float64(p.HorizonYears))

	return null.FloatFrom(pv / shares.Float64)
}

// EPVValue is after-tax operating income capitalised at the cost of capital, per share.
func EPVValue(operatingIncome, shares null.Float, p Params) null.Float {
	if !operatingIncome.Valid || !shares.Valid || operatingIncome.Float64 <= 0 || shares.Float64 <= 0 {
		return null.Float{}
	}
	if p.CostOfCapital <= 0 {
		return null.Float{}
	}
	normalized := operatingIncome.Float64 * (1 - p.TaxRate)
	return null.FloatFrom(normalized / p.CostOfCapital / shares.Float64)
}

// FairValue averages whichever estimates are defined.
func FairValue(estimates ...null.Float) null.Float {
	sum, n := 0.0, 0
	for _, e := range estimates {
		if e.Valid {
			sum += e.Float64
			n++
		}
	}
	if n == 0 {
		return null.Float{}
	}
	return null.FloatFrom(sum / float64(n))
}

// Derive computes the full valuation block for a snapshot at the given price.
func Derive(snap model.RawSnapshot, price null.Float, p Params) model.DerivedValuation {
	g := GrowthAssumption(snap, p)

	v := model.DerivedValuation{
		GrahamNumber:     GrahamNumber(snap.EPS, snap.BookValuePerShare),
		DCFValue:         DCFValue(snap.FreeCashFlow, snap.SharesOutstanding, g, p),
		EPVValue:         EPVValue(snap.OperatingIncome, snap.SharesOutstanding, p),
		GrowthAssumption: null.FloatFrom(g * 100),
	}
	v.GrahamMarginOfSafety = MarginOfSafety(v.GrahamNumber, price)
	v.FairValue = FairValue(v.GrahamNumber, v.DCFValue, v.EPVValue)
	v.MarginOfSafety = MarginOfSafety(v.FairValue, price)
	return v
}
