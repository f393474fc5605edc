package model

import "time"

// PricePoint is a single daily close.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceHistory holds closes for one ticker, ascending by date.
type PriceHistory struct {
	Ticker    string       `json:"ticker"`
	Points    []PricePoint `json:"points"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// Closes returns a copy of the close series in chronological order.
func (h PriceHistory) Closes() []float64 {
	closes := make([]float64, len(h.Points))
	for i, p := range h.Points {
		closes[i] = p.Close
	}
	return closes
}

// Len returns the number of points.
func (h PriceHistory) Len() int { return len(h.Points) }

// Last returns the most recent close, or false if the history is empty.
func (h PriceHistory) Last() (float64, bool) {
	if len(h.Points) == 0 {
		return 0, false
	}
	return h.Points[len(h.Points)-1].Close, true
}
