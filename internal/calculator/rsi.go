package calculator

import "github.com/guregu/null/v6"

// RSIPeriod is the lookback used for the stored RSI.
const RSIPeriod = 14

// CalculateRSI computes RSI from the simple average gain and loss over the
// trailing `period` deltas. Requires at least period+1 closes, otherwise the
// result is undefined. A window without losses is fully overbought (100).
func CalculateRSI(closes []float64, period int) null.Float {
	if period <= 0 || len(closes) < period+1 {
		return null.Float{}
	}

	start := len(closes) - period
	var avgGain, avgLoss float64
	for i := start; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	if avgLoss == 0 {
		return null.FloatFrom(100)
	}
	rs := avgGain / avgLoss
	return null.FloatFrom(100.0 - 100.0/(1.0+rs))
}
