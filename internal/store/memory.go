package store

import (
	"context"
	"sort"
	"sync"

	"ValueSentinel/internal/model"
)

// MemoryBackend keeps entries in process memory. Entries are copied on the way
// in and out, so callers can never mutate what is stored.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]model.CacheEntry
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]model.CacheEntry)}
}

func (m *MemoryBackend) Name() string { return "memory" }

func (m *MemoryBackend) Load(_ context.Context, ticker string) (model.CacheEntry, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[normalizeTicker(ticker)]
	m.mu.RUnlock()
	if !ok {
		return model.CacheEntry{}, false, nil
	}
	e.Record = e.Record.Clone()
	return e, true, nil
}

func (m *MemoryBackend) LoadAll(_ context.Context) ([]model.CacheEntry, error) {
	m.mu.RLock()
	out := make([]model.CacheEntry, 0, len(m.entries))
	for _, e := range m.entries {
		e.Record = e.Record.Clone()
		out = append(out, e)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker() < out[j].Ticker() })
	return out, nil
}

func (m *MemoryBackend) Save(_ context.Context, entry model.CacheEntry) error {
	entry.Record = entry.Record.Clone()
	m.mu.Lock()
	m.entries[normalizeTicker(entry.Record.Ticker)] = entry
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) Clear(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.entries)
	m.entries = make(map[string]model.CacheEntry)
	return n, nil
}

func (m *MemoryBackend) Close() error { return nil }
