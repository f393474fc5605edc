package valuation

import (
	"errors"
	"math"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ValueSentinel/internal/model"
)

func TestGrahamNumber(t *testing.T) {
	tests := []struct {
		name      string
		eps, bvps null.Float
		valid     bool
		want      float64
	}{
		{"positive inputs", null.FloatFrom(2), null.FloatFrom(20), true, 30},
		{"fractional", null.FloatFrom(1.5), null.FloatFrom(12), true, math.Sqrt(22.5 * 1.5 * 12)},
		{"zero eps", null.FloatFrom(0), null.FloatFrom(20), false, 0},
		{"negative eps", null.FloatFrom(-1), null.FloatFrom(20), false, 0},
		{"negative book", null.FloatFrom(2), null.FloatFrom(-5), false, 0},
		{"missing eps", null.Float{}, null.FloatFrom(20), false, 0},
		{"missing book", null.FloatFrom(2), null.Float{}, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GrahamNumber(tt.eps, tt.bvps)
			require.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				assert.InDelta(t, tt.want, got.Float64, 1e-9)
			}
		})
	}
}

func TestMarginOfSafety(t *testing.T) {
	mos := MarginOfSafety(null.FloatFrom(30), null.FloatFrom(20))
	require.True(t, mos.Valid)
	assert.InDelta(t, 33.333, mos.Float64, 0.001)

	assert.InDelta(t, -50.0, MarginOfSafety(null.FloatFrom(20), null.FloatFrom(30)).Float64, 1e-9)
	assert.False(t, MarginOfSafety(null.Float{}, null.FloatFrom(20)).Valid)
	assert.False(t, MarginOfSafety(null.FloatFrom(30), null.Float{}).Valid)
}

func TestDCFValue(t *testing.T) {
	p := DefaultParams()

	v := DCFValue(null.FloatFrom(100), null.FloatFrom(10), 0, p)
	require.True(t, v.Valid)
	assert.InDelta(t, 118.1756, v.Float64, 0.001)

	grown := DCFValue(null.FloatFrom(100), null.FloatFrom(10), 0.05, p)
	assert.Greater(t, grown.Float64, v.Float64)

	assert.False(t, DCFValue(null.FloatFrom(-100), null.FloatFrom(10), 0, p).Valid)
	assert.False(t, DCFValue(null.FloatFrom(100), null.FloatFrom(0), 0, p).Valid)
	assert.False(t, DCFValue(null.Float{}, null.FloatFrom(10), 0, p).Valid)

	bad := p
	bad.TerminalGrowth = bad.DiscountRate
	assert.False(t, DCFValue(null.FloatFrom(100), null.FloatFrom(10), 0, bad).Valid)
}

func TestGrowthAssumption(t *testing.T) {
	p := DefaultParams()

	t.Run("default", func(t *testing.T) {
		assert.InDelta(t, 0.05, GrowthAssumption(model.RawSnapshot{}, p), 1e-9)
	})
	t.Run("revenue cagr", func(t *testing.T) {
		snap := model.RawSnapshot{Revenues: []float64{100, 110, 121}}
		assert.InDelta(t, 0.10, GrowthAssumption(snap, p), 1e-9)
	})
	t.Run("reported growth", func(t *testing.T) {
		snap := model.RawSnapshot{RevenueGrowth: null.FloatFrom(8)}
		assert.InDelta(t, 0.08, GrowthAssumption(snap, p), 1e-9)
	})
	t.Run("clamped high", func(t *testing.T) {
		snap := model.RawSnapshot{Revenues: []float64{100, 300}}
		assert.InDelta(t, 0.25, GrowthAssumption(snap, p), 1e-9)
	})
	t.Run("clamped low", func(t *testing.T) {
		snap := model.RawSnapshot{RevenueGrowth: null.FloatFrom(-60)}
		assert.InDelta(t, -0.10, GrowthAssumption(snap, p), 1e-9)
	})
	t.Run("override", func(t *testing.T) {
		o := p
		o.GrowthOverride = null.FloatFrom(0.02)
		snap := model.RawSnapshot{Revenues: []float64{100, 300}}
		assert.InDelta(t, 0.02, GrowthAssumption(snap, o), 1e-9)
	})
}

func TestEPVValue(t *testing.T) {
	p := DefaultParams()
	v := EPVValue(null.FloatFrom(100), null.FloatFrom(10), p)
	require.True(t, v.Valid)
	assert.InDelta(t, 79.0, v.Float64, 1e-9)

	assert.False(t, EPVValue(null.FloatFrom(-5), null.FloatFrom(10), p).Valid)
	assert.False(t, EPVValue(null.FloatFrom(100), null.Float{}, p).Valid)
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	p := DefaultParams()
	p.DiscountRate = 0.03
	err := p.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidParams))

	p = DefaultParams()
	p.HorizonYears = 0
	assert.Error(t, p.Validate())
}

func TestDerive(t *testing.T) {
	p := DefaultParams()

	t.Run("graham only", func(t *testing.T) {
		snap := model.RawSnapshot{EPS: null.FloatFrom(2), BookValuePerShare: null.FloatFrom(20)}
		v := Derive(snap, null.FloatFrom(20), p)
		assert.InDelta(t, 30.0, v.GrahamNumber.Float64, 1e-9)
		assert.False(t, v.DCFValue.Valid)
		assert.False(t, v.EPVValue.Valid)
		assert.InDelta(t, 30.0, v.FairValue.Float64, 1e-9)
		assert.InDelta(t, 33.333, v.MarginOfSafety.Float64, 0.001)
		assert.InDelta(t, 33.333, v.GrahamMarginOfSafety.Float64, 0.001)
	})

	t.Run("averages defined estimates", func(t *testing.T) {
		snap := model.RawSnapshot{
			EPS:               null.FloatFrom(-1),
			BookValuePerShare: null.FloatFrom(20),
			OperatingIncome:   null.FloatFrom(100),
			SharesOutstanding: null.FloatFrom(10),
			FreeCashFlow:      null.FloatFrom(100),
		}
		o := p
		o.GrowthOverride = null.FloatFrom(0)
		v := Derive(snap, null.FloatFrom(50), o)
		assert.False(t, v.GrahamNumber.Valid)
		assert.False(t, v.GrahamMarginOfSafety.Valid)
		assert.InDelta(t, (79.0+118.1756)/2, v.FairValue.Float64, 0.001)
		assert.True(t, v.MarginOfSafety.Valid)
	})

	t.Run("nothing defined", func(t *testing.T) {
		v := Derive(model.RawSnapshot{}, null.FloatFrom(10), p)
		assert.False(t, v.FairValue.Valid)
		assert.False(t, v.MarginOfSafety.Valid)
	})
}
