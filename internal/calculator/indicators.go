package calculator

import (
	"github.com/guregu/null/v6"

	"ValueSentinel/internal/model"
)

// DeriveIndicators computes every technical indicator for one ticker.
// The snapshot's price and reported 52-week range take precedence; the history
// fills in whatever the source left out. Short histories yield undefined values.
func DeriveIndicators(history model.PriceHistory, snap model.RawSnapshot) model.DerivedIndicators {
	closes := history.Closes()

	price := snap.Price
	if !price.Valid {
		if last, ok := history.Last(); ok {
			price = null.FloatFrom(last)
		}
	}

	high, low := snap.High52w, snap.Low52w
	if !high.Valid || !low.Valid {
		h, l := Calculate52WeekRange(closes)
		if !high.Valid {
			high = h
		}
		if !low.Valid {
			low = l
		}
	}

	ind := model.DerivedIndicators{
		RSI14:     CalculateRSI(closes, RSIPeriod),
		SMA50:     CalculateSMA(closes, 50),
		SMA200:    CalculateSMA(closes, 200),
		High52w:   high,
		Low52w:    low,
		Return1m:  CalculateReturn(closes, Days1Month),
		Return6m:  CalculateReturn(closes, Days6Months),
		Return12m: CalculateReturn(closes, Days12Months),
	}
	ind.PctVsSMA50 = PercentVs(price, ind.SMA50)
	ind.PctVsSMA200 = PercentVs(price, ind.SMA200)
	ind.PctFrom52wHigh = PercentFromHigh(price, high)
	ind.PctFrom52wLow = PercentFromLow(price, low)
	ind.Position52w = Calculate52WeekPosition(price, high, low)
	return ind
}
