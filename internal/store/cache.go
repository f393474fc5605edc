// Package store is the ticker-keyed metrics cache. It never calls a snapshot
// source: reads only see what a refresh has written.
package store

import (
	"context"
	"fmt"
	"time"

	"ValueSentinel/internal/logger"
	"ValueSentinel/internal/model"
)

// DefaultTTL is how long an entry stays fresh.
const DefaultTTL = 24 * time.Hour

// Stats summarises cache contents.
type Stats struct {
	Backend string        `json:"backend"`
	Total   int           `json:"total"`
	Fresh   int           `json:"fresh"`
	Stale   int           `json:"stale"`
	Oldest  *time.Time    `json:"oldest,omitempty"`
	Newest  *time.Time    `json:"newest,omitempty"`
	TTL     time.Duration `json:"ttl"`
}

// Cache layers TTL freshness and a clock over a Backend.
type Cache struct {
	backend Backend
	ttl     time.Duration
	now     func() time.Time
	log     *logger.Logger
}

// New creates a Cache. A non-positive ttl falls back to DefaultTTL.
func New(backend Backend, ttl time.Duration, log *logger.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{backend: backend, ttl: ttl, now: time.Now, log: log}
}

// SetClock replaces the time source.
func (c *Cache) SetClock(now func() time.Time) { c.now = now }

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Now returns the cache's notion of the current time.
func (c *Cache) Now() time.Time { return c.now() }

// IsFresh reports whether the entry is within the TTL right now.
func (c *Cache) IsFresh(e model.CacheEntry) bool { return e.IsFresh(c.now(), c.ttl) }

// Get returns the cached entry. found=false means the ticker was never stored;
// a found entry may still be stale.
func (c *Cache) Get(ctx context.Context, ticker string) (model.CacheEntry, bool, error) {
	return c.backend.Load(ctx, ticker)
}

// Put stores the record, replacing any previous entry, stamped with the current time.
func (c *Cache) Put(ctx context.Context, rec model.MetricsRecord) (model.CacheEntry, error) {
	if rec.Ticker == "" {
		return model.CacheEntry{}, fmt.Errorf("put: record has no ticker")
	}
	rec.Ticker = normalizeTicker(rec.Ticker)
	entry := model.CacheEntry{Record: rec, FetchedAt: c.now()}
	if err := c.backend.Save(ctx, entry); err != nil {
		return model.CacheEntry{}, err
	}
	return entry, nil
}

// GetMany returns entries for the given tickers in request order plus the
// tickers that have no entry. Duplicates and blanks are ignored.
func (c *Cache) GetMany(ctx context.Context, tickers []string) ([]model.CacheEntry, []string, error) {
	var (
		found   []model.CacheEntry
		missing []string
		seen    = make(map[string]bool, len(tickers))
	)
	for _, t := range tickers {
		t = normalizeTicker(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		e, ok, err := c.backend.Load(ctx, t)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			missing = append(missing, t)
			continue
		}
		found = append(found, e)
	}
	return found, missing, nil
}

// All returns every cached entry ordered by ticker.
func (c *Cache) All(ctx context.Context) ([]model.CacheEntry, error) {
	return c.backend.LoadAll(ctx)
}

// Stats counts fresh and stale entries and reports the oldest and newest fetch times.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	entries, err := c.backend.LoadAll(ctx)
	if err != nil {
		return Stats{}, err
	}
	now := c.now()
	st := Stats{Backend: c.backend.Name(), Total: len(entries), TTL: c.ttl}
	for _, e := range entries {
		if e.IsFresh(now, c.ttl) {
			st.Fresh++
		} else {
			st.Stale++
		}
		ts := e.FetchedAt
		if st.Oldest == nil || ts.Before(*st.Oldest) {
			st.Oldest = &ts
		}
		if st.Newest == nil || ts.After(*st.Newest) {
			st.Newest = &ts
		}
	}
	return st, nil
}

// Clear removes every entry and returns how many were dropped.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	n, err := c.backend.Clear(ctx)
	if err != nil {
		return 0, err
	}
	c.log.WithField("removed", n).Info("cache cleared")
	return n, nil
}

// Close releases the backend.
func (c *Cache) Close() error { return c.backend.Close() }
