package calculator

import "github.com/guregu/null/v6"

// Trailing return windows in trading days.
const (
	Days1Month   = 21
	Days6Months  = 126
	Days12Months = 252
)

// CalculateReturn computes the percent change between the last close and the
// close `days` sessions earlier.
func CalculateReturn(closes []float64, days int) null.Float {
	if days <= 0 || len(closes) < days+1 {
		return null.Float{}
	}
	past := closes[len(closes)-1-days]
	if past <= 0 {
		return null.Float{}
	}
	cur := closes[len(closes)-1]
	return null.FloatFrom((cur - past) / past * 100)
}
