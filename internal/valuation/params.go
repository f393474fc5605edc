package valuation

import (
	"fmt"

	"github.com/guregu/null/v6"

	"ValueSentinel/internal/model"
)

// Params holds the assumptions behind the fair-value models. Rates are fractions (0.10 = 10%).
type Params struct {
	GrowthOverride null.Float
	GrowthFloor    float64
	GrowthCap      float64
	DefaultGrowth  float64
	DiscountRate   float64
	TerminalGrowth float64
	HorizonYears   int
	TaxRate        float64
	CostOfCapital  float64
}

// DefaultParams returns the standard assumptions.
func DefaultParams() Params {
	return Params{
		GrowthFloor:    -0.10,
		GrowthCap:      0.25,
		DefaultGrowth:  0.05,
		DiscountRate:   0.10,
		TerminalGrowth: 0.03,
		HorizonYears:   10,
		TaxRate:        0.21,
		CostOfCapital:  0.10,
	}
}

// Validate rejects parameter sets that would produce negative or infinite values.
func (p Params) Validate() error {
	if p.DiscountRate <= p.TerminalGrowth {
		return fmt.Errorf("%w: discount rate %.4f must exceed terminal growth %.4f",
			model.ErrInvalidParams, p.DiscountRate, p.TerminalGrowth)
	}
	if p.HorizonYears <= 0 {
		return fmt.Errorf("%w: horizon must be positive", model.ErrInvalidParams)
	}
	if p.CostOfCapital <= 0 {
		return fmt.Errorf("%w: cost of capital must be positive", model.ErrInvalidParams)
	}
	if p.GrowthFloor > p.GrowthCap {
		return fmt.Errorf("%w: growth floor above cap", model.ErrInvalidParams)
	}
	if p.TaxRate < 0 || p.TaxRate >= 1 {
		return fmt.Errorf("%w: tax rate must be in [0,1)", model.ErrInvalidParams)
	}
	return nil
}
