package calculator

import (
	"math"

	"github.com/guregu/null/v6"
)

// TradingDaysPerYear is the window used for 52-week figures.
const TradingDaysPerYear = 252

// Calculate52WeekRange scans the most recent 252 closes and returns the high and low.
func Calculate52WeekRange(closes []float64) (high, low null.Float) {
	if len(closes) == 0 {
		return null.Float{}, null.Float{}
	}
	start := len(closes) - TradingDaysPerYear
	if start < 0 {
		start = 0
	}
	h := math.Inf(-1)
	l := math.Inf(1)
	for i := start; i < len(closes); i++ {
		if closes[i] > h {
			h = closes[i]
		}
		if closes[i] < l {
			l = closes[i]
		}
	}
	return null.FloatFrom(h), null.FloatFrom(l)
}

// Calculate52WeekPosition returns where the price sits within the 52-week range (0.0~1.0).
// A degenerate range (high == low) is 0.5.
func Calculate52WeekPosition(price, high, low null.Float) null.Float {
	if !price.Valid || !high.Valid || !low.Valid {
		return null.Float{}
	}
	if high.Float64 == low.Float64 {
		return null.FloatFrom(0.5)
	}
	if high.Float64 < low.Float64 {
		return null.Float{}
	}
	pos := (price.Float64 - low.Float64) / (high.Float64 - low.Float64)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return null.FloatFrom(pos)
}

// PercentFromHigh returns (price - high) / high * 100, zero or negative below the high.
func PercentFromHigh(price, high null.Float) null.Float {
	return PercentVs(price, high)
}

// PercentFromLow returns (price - low) / low * 100.
func PercentFromLow(price, low null.Float) null.Float {
	return PercentVs(price, low)
}
