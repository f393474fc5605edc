package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ValueSentinel/internal/logger"
	"ValueSentinel/internal/model"
)

// Backend persists cache entries keyed by ticker. Save must replace the whole
// entry atomically: a concurrent Load observes either the old or the new entry.
type Backend interface {
	Load(ctx context.Context, ticker string) (model.CacheEntry, bool, error)
	LoadAll(ctx context.Context) ([]model.CacheEntry, error)
	Save(ctx context.Context, entry model.CacheEntry) error
	Clear(ctx context.Context) (int, error)
	Name() string
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend       string // memory | sqlite | redis
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open builds the configured backend.
func Open(ctx context.Context, opts Options, log *logger.Logger) (Backend, error) {
	switch strings.ToLower(opts.Backend) {
	case "", "sqlite":
		return NewSQLiteBackend(opts.SQLitePath, log)
	case "memory":
		return NewMemoryBackend(), nil
	case "redis":
		return NewRedisBackend(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.RedisPrefix, log)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}

func normalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

func encodeRecord(rec model.MetricsRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", rec.Ticker, err)
	}
	return data, nil
}

func decodeRecord(data []byte) (model.MetricsRecord, error) {
	var rec model.MetricsRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.MetricsRecord{}, fmt.Errorf("decode cache entry: %w", err)
	}
	return rec, nil
}
