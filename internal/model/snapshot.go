package model

import "github.com/guregu/null/v6"

// RawSnapshot is the fundamentals and latest quote reported by a snapshot source.
// Every numeric field is optional: an invalid null.Float means the source did not report it.
// Percent-valued fields are already scaled to percent (12.5 means 12.5%).
type RawSnapshot struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name,omitempty"`
	Sector   string `json:"sector,omitempty"`
	Industry string `json:"industry,omitempty"`
	Currency string `json:"currency,omitempty"`

	Price             null.Float `json:"price"`
	MarketCap         null.Float `json:"market_cap"`
	EPS               null.Float `json:"eps"`
	BookValuePerShare null.Float `json:"book_value_per_share"`
	SharesOutstanding null.Float `json:"shares_outstanding"`

	PETrailing null.Float `json:"pe_trailing"`
	PEForward  null.Float `json:"pe_forward"`
	PB         null.Float `json:"pb"`
	PS         null.Float `json:"ps"`
	PEG        null.Float `json:"peg"`
	EVEBITDA   null.Float `json:"ev_ebitda"`

	GrossMargin     null.Float `json:"gross_margin"`
	OperatingMargin null.Float `json:"operating_margin"`
	NetMargin       null.Float `json:"net_margin"`
	ROE             null.Float `json:"roe"`
	ROA             null.Float `json:"roa"`

	DebtToEquity null.Float `json:"debt_to_equity"`
	CurrentRatio null.Float `json:"current_ratio"`

	RevenueGrowth  null.Float `json:"revenue_growth"`
	EarningsGrowth null.Float `json:"earnings_growth"`

	DividendYield null.Float `json:"dividend_yield"`
	PayoutRatio   null.Float `json:"payout_ratio"`

	FreeCashFlow     null.Float `json:"free_cash_flow"`
	OperatingIncome  null.Float `json:"operating_income"`
	TotalRevenue     null.Float `json:"total_revenue"`
	InsiderOwnership null.Float `json:"insider_ownership"`

	High52w null.Float `json:"high_52w"`
	Low52w  null.Float `json:"low_52w"`

	// Revenues is annual total revenue, oldest first.
	Revenues []float64 `json:"revenues,omitempty"`
}

// Clone returns a deep copy.
func (s RawSnapshot) Clone() RawSnapshot {
	c := s
	if s.Revenues != nil {
		c.Revenues = append([]float64(nil), s.Revenues...)
	}
	return c
}
