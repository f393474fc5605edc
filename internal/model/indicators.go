package model

import "github.com/guregu/null/v6"

// DerivedIndicators holds technical indicators computed from a price history.
type DerivedIndicators struct {
	RSI14          null.Float `json:"rsi_14"`
	SMA50          null.Float `json:"sma_50"`
	SMA200         null.Float `json:"sma_200"`
	PctVsSMA50     null.Float `json:"pct_vs_sma_50"`
	PctVsSMA200    null.Float `json:"pct_vs_sma_200"`
	High52w        null.Float `json:"high_52w"`
	Low52w         null.Float `json:"low_52w"`
	PctFrom52wHigh null.Float `json:"pct_from_52w_high"`
	PctFrom52wLow  null.Float `json:"pct_from_52w_low"`
	Position52w    null.Float `json:"position_52w"` // 0 = at low, 1 = at high
	Return1m       null.Float `json:"return_1m"`
	Return6m       null.Float `json:"return_6m"`
	Return12m      null.Float `json:"return_12m"`
}

// DerivedValuation holds fair-value estimates. Margins of safety are percent.
type DerivedValuation struct {
	GrahamNumber         null.Float `json:"graham_number"`
	GrahamMarginOfSafety null.Float `json:"graham_margin_of_safety"`
	DCFValue             null.Float `json:"dcf_value"`
	EPVValue             null.Float `json:"epv_value"`
	FairValue            null.Float `json:"fair_value"`
	MarginOfSafety       null.Float `json:"margin_of_safety"`
	GrowthAssumption     null.Float `json:"growth_assumption"`
}
