package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// MetricsRecord is the immutable per-ticker merge of snapshot, indicators and valuation.
// A refresh always produces a new record; fields are never updated in place.
type MetricsRecord struct {
	Ticker     string            `json:"ticker"`
	Snapshot   RawSnapshot       `json:"snapshot"`
	Indicators DerivedIndicators `json:"indicators"`
	Valuation  DerivedValuation  `json:"valuation"`

	// Ratios that are either reported or derived from price and per-share figures.
	PE          null.Float `json:"pe"`
	PB          null.Float `json:"pb"`
	PEPBProduct null.Float `json:"pe_pb_product"`
	FCFYield    null.Float `json:"fcf_yield"`

	ComputedAt time.Time `json:"computed_at"`
}

// Price returns the snapshot price.
func (r MetricsRecord) Price() null.Float { return r.Snapshot.Price }

// Clone returns a deep copy of the record.
func (r MetricsRecord) Clone() MetricsRecord {
	c := r
	c.Snapshot = r.Snapshot.Clone()
	return c
}

// CacheEntry is a cached MetricsRecord plus the time it was stored.
type CacheEntry struct {
	Record    MetricsRecord `json:"record"`
	FetchedAt time.Time     `json:"fetched_at"`
}

// Ticker returns the ticker of the cached record.
func (e CacheEntry) Ticker() string { return e.Record.Ticker }

// Age returns how long ago the entry was fetched.
func (e CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// IsFresh reports whether the entry is younger than ttl.
func (e CacheEntry) IsFresh(now time.Time, ttl time.Duration) bool {
	return e.Age(now) < ttl
}
