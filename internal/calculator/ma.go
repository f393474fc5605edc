package calculator

import "github.com/guregu/null/v6"

// CalculateSMA computes the simple moving average of the last `period` closes.
func CalculateSMA(closes []float64, period int) null.Float {
	if period <= 0 || len(closes) < period {
		return null.Float{}
	}
	sum := 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		sum += closes[i]
	}
	return null.FloatFrom(sum / float64(period))
}

// PercentVs returns (price - ref) / ref * 100.
// Undefined when either side is undefined or ref is not positive.
func PercentVs(price, ref null.Float) null.Float {
	if !price.Valid || !ref.Valid || ref.Float64 <= 0 {
		return null.Float{}
	}
	return null.FloatFrom((price.Float64 - ref.Float64) / ref.Float64 * 100)
}
