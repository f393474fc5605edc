package calculator

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ValueSentinel/internal/model"
)

func linear(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestCalculateRSI_InsufficientData(t *testing.T) {
	for n := 0; n < 15; n++ {
		rsi := CalculateRSI(linear(n, 100, 1), RSIPeriod)
		assert.False(t, rsi.Valid, "expected undefined RSI for %d closes", n)
	}
	assert.True(t, CalculateRSI(linear(15, 100, 1), RSIPeriod).Valid)
}

func TestCalculateRSI_NoLosses(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
	}{
		{"rising", linear(30, 10, 0.5)},
		{"flat", linear(20, 42, 0)},
		{"rising with flats", []float64{1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6, 7, 7, 8, 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rsi := CalculateRSI(tt.closes, RSIPeriod)
			require.True(t, rsi.Valid)
			assert.Equal(t, 100.0, rsi.Float64)
		})
	}
}

func TestCalculateRSI_Balanced(t *testing.T) {
	closes := make([]float64, 15)
	for i := range closes {
		closes[i] = 100 + float64(i%2)
	}
	rsi := CalculateRSI(closes, RSIPeriod)
	require.True(t, rsi.Valid)
	assert.InDelta(t, 50.0, rsi.Float64, 1e-9)
}

func TestCalculateRSI_UsesTrailingWindow(t *testing.T) {
	// An early crash must not affect RSI once it falls out of the 14-delta window.
	closes := append([]float64{500, 10}, linear(15, 10, 1)...)
	rsi := CalculateRSI(closes, RSIPeriod)
	require.True(t, rsi.Valid)
	assert.Equal(t, 100.0, rsi.Float64)
}

func TestCalculateRSI_Bounded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		n := 15 + rng.Intn(60)
		closes := make([]float64, n)
		p := 100.0
		for i := range closes {
			p += rng.NormFloat64() * 3
			closes[i] = p
		}
		rsi := CalculateRSI(closes, RSIPeriod)
		require.True(t, rsi.Valid)
		assert.GreaterOrEqual(t, rsi.Float64, 0.0)
		assert.LessOrEqual(t, rsi.Float64, 100.0)
	}
}

func TestCalculateSMA(t *testing.T) {
	assert.False(t, CalculateSMA(linear(49, 1, 1), 50).Valid)
	assert.False(t, CalculateSMA(linear(10, 1, 1), 0).Valid)

	sma := CalculateSMA([]float64{1, 2, 3, 4, 5}, 3)
	require.True(t, sma.Valid)
	assert.InDelta(t, 4.0, sma.Float64, 1e-9)
}

func TestPercentVs(t *testing.T) {
	assert.InDelta(t, 10.0, PercentVs(null.FloatFrom(110), null.FloatFrom(100)).Float64, 1e-9)
	assert.InDelta(t, -25.0, PercentVs(null.FloatFrom(75), null.FloatFrom(100)).Float64, 1e-9)
	assert.False(t, PercentVs(null.FloatFrom(75), null.Float{}).Valid)
	assert.False(t, PercentVs(null.Float{}, null.FloatFrom(100)).Valid)
	assert.False(t, PercentVs(null.FloatFrom(75), null.FloatFrom(0)).Valid)
}

func TestCalculate52WeekPosition(t *testing.T) {
	tests := []struct {
		name             string
		price, high, low float64
		want             float64
	}{
		{"at low", 50, 100, 50, 0},
		{"at high", 100, 100, 50, 1},
		{"middle", 75, 100, 50, 0.5},
		{"degenerate range", 42, 42, 42, 0.5},
		{"above high clamps", 120, 100, 50, 1},
		{"below low clamps", 40, 100, 50, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := Calculate52WeekPosition(null.FloatFrom(tt.price), null.FloatFrom(tt.high), null.FloatFrom(tt.low))
			require.True(t, pos.Valid)
			assert.InDelta(t, tt.want, pos.Float64, 1e-9)
		})
	}

	assert.False(t, Calculate52WeekPosition(null.FloatFrom(1), null.FloatFrom(1), null.Float{}).Valid)
	assert.False(t, Calculate52WeekPosition(null.FloatFrom(1), null.FloatFrom(1), null.FloatFrom(2)).Valid)
}

func TestCalculate52WeekRange(t *testing.T) {
	high, low := Calculate52WeekRange(nil)
	assert.False(t, high.Valid)
	assert.False(t, low.Valid)

	// The first value falls outside the trailing 252-session window.
	closes := append([]float64{1000}, linear(252, 10, 1)...)
	high, low = Calculate52WeekRange(closes)
	assert.Equal(t, 261.0, high.Float64)
	assert.Equal(t, 10.0, low.Float64)
}

func TestCalculateReturn(t *testing.T) {
	closes := linear(22, 100, 0)
	closes[len(closes)-1] = 110
	ret := CalculateReturn(closes, Days1Month)
	require.True(t, ret.Valid)
	assert.InDelta(t, 10.0, ret.Float64, 1e-9)

	assert.False(t, CalculateReturn(closes, Days6Months).Valid)
	assert.False(t, CalculateReturn([]float64{0, 5}, 1).Valid)
}

func TestDeriveIndicators(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]model.PricePoint, 260)
	for i := range points {
		points[i] = model.PricePoint{Date: start.AddDate(0, 0, i), Close: 100 + float64(i)}
	}
	history := model.PriceHistory{Ticker: "ABC", Points: points}

	t.Run("falls back to history", func(t *testing.T) {
		ind := DeriveIndicators(history, model.RawSnapshot{Ticker: "ABC"})
		assert.Equal(t, 100.0, ind.RSI14.Float64)
		assert.True(t, ind.SMA50.Valid)
		assert.True(t, ind.SMA200.Valid)
		assert.Equal(t, 359.0, ind.High52w.Float64)
		assert.Equal(t, 108.0, ind.Low52w.Float64)
		assert.InDelta(t, 1.0, ind.Position52w.Float64, 1e-9)
		assert.InDelta(t, 0.0, ind.PctFrom52wHigh.Float64, 1e-9)
		assert.True(t, ind.Return12m.Valid)
	})

	t.Run("snapshot range wins", func(t *testing.T) {
		snap := model.RawSnapshot{
			Ticker:  "ABC",
			Price:   null.FloatFrom(150),
			High52w: null.FloatFrom(200),
			Low52w:  null.FloatFrom(100),
		}
		ind := DeriveIndicators(history, snap)
		assert.InDelta(t, 0.5, ind.Position52w.Float64, 1e-9)
		assert.InDelta(t, -25.0, ind.PctFrom52wHigh.Float64, 1e-9)
		assert.InDelta(t, 50.0, ind.PctFrom52wLow.Float64, 1e-9)
	})

	t.Run("single point", func(t *testing.T) {
		short := model.PriceHistory{Ticker: "ABC", Points: points[:1]}
		ind := DeriveIndicators(short, model.RawSnapshot{Ticker: "ABC"})
		assert.False(t, ind.RSI14.Valid)
		assert.False(t, ind.SMA50.Valid)
		assert.False(t, ind.Return1m.Valid)
		assert.InDelta(t, 0.5, ind.Position52w.Float64, 1e-9)
		assert.False(t, math.IsNaN(ind.Position52w.Float64))
	})
}
