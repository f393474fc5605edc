package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"ValueSentinel/internal/logger"
	"ValueSentinel/internal/model"
)

// RedisBackend stores each entry as one JSON value under <prefix>:cache:<ticker>
// and tracks known tickers in a set for listing.
type RedisBackend struct {
	rdb    *redis.Client
	prefix string
	log    *logger.Logger
}

type redisEntry struct {
	Record    json.RawMessage `json:"record"`
	FetchedAt int64           `json:"fetched_at"`
}

// NewRedisBackend connects to Redis and verifies the connection.
func NewRedisBackend(ctx context.Context, addr, password string, db int, prefix string, log *logger.Logger) (*RedisBackend, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}
	if prefix == "" {
		prefix = "valuesentinel"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	log.WithField("addr", addr).Info("redis cache connected")
	return &RedisBackend{rdb: rdb, prefix: prefix, log: log}, nil
}

func (b *RedisBackend) Name() string { return "redis" }

func (b *RedisBackend) key(ticker string) string {
	return fmt.Sprintf("%s:cache:%s", b.prefix, normalizeTicker(ticker))
}

func (b *RedisBackend) indexKey() string { return b.prefix + ":tickers" }

func (b *RedisBackend) Load(ctx context.Context, ticker string) (model.CacheEntry, bool, error) {
	data, err := b.rdb.Get(ctx, b.key(ticker)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.CacheEntry{}, false, nil
	}
	if err != nil {
		return model.CacheEntry{}, false, fmt.Errorf("load %s: %w", ticker, err)
	}
	e, err := decodeRedisEntry(data)
	if err != nil {
		return model.CacheEntry{}, false, err
	}
	return e, true, nil
}

func (b *RedisBackend) LoadAll(ctx context.Context) ([]model.CacheEntry, error) {
	tickers, err := b.rdb.SMembers(ctx, b.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list tickers: %w", err)
	}
	if len(tickers) == 0 {
		return nil, nil
	}
	sort.Strings(tickers)

	keys := make([]string, len(tickers))
	for i, t := range tickers {
		keys[i] = b.key(t)
	}
	vals, err := b.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load all: %w", err)
	}

	out := make([]model.CacheEntry, 0, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue // expired or removed behind our back
		}
		e, err := decodeRedisEntry([]byte(s))
		if err != nil {
			b.log.WithField("ticker", tickers[i]).WithError(err).Warn("skipping undecodable cache entry")
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Save writes the entry and its index membership in one MULTI/EXEC.
func (b *RedisBackend) Save(ctx context.Context, entry model.CacheEntry) error {
	rec, err := encodeRecord(entry.Record)
	if err != nil {
		return err
	}
	data, err := json.Marshal(redisEntry{Record: rec, FetchedAt: entry.FetchedAt.UnixNano()})
	if err != nil {
		return fmt.Errorf("encode %s: %w", entry.Record.Ticker, err)
	}

	ticker := normalizeTicker(entry.Record.Ticker)
	_, err = b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, b.key(ticker), data, 0)
		pipe.SAdd(ctx, b.indexKey(), ticker)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", ticker, err)
	}
	return nil
}

func (b *RedisBackend) Clear(ctx context.Context) (int, error) {
	tickers, err := b.rdb.SMembers(ctx, b.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("list tickers: %w", err)
	}
	keys := make([]string, 0, len(tickers)+1)
	for _, t := range tickers {
		keys = append(keys, b.key(t))
	}
	keys = append(keys, b.indexKey())
	if err := b.rdb.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("clear: %w", err)
	}
	return len(tickers), nil
}

func (b *RedisBackend) Close() error {
	return b.rdb.Close()
}

func decodeRedisEntry(data []byte) (model.CacheEntry, error) {
	var re redisEntry
	if err := json.Unmarshal(data, &re); err != nil {
		return model.CacheEntry{}, fmt.Errorf("decode cache entry: %w", err)
	}
	rec, err := decodeRecord(re.Record)
	if err != nil {
		return model.CacheEntry{}, err
	}
	return model.CacheEntry{Record: rec, FetchedAt: time.Unix(0, re.FetchedAt).UTC()}, nil
}
