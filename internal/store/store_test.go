package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ValueSentinel/internal/logger"
	"ValueSentinel/internal/model"
)

func rec(ticker string, price float64) model.MetricsRecord {
	return model.MetricsRecord{
		Ticker:   ticker,
		Snapshot: model.RawSnapshot{Ticker: ticker, Price: null.FloatFrom(price), Revenues: []float64{1, 2}},
		PE:       null.FloatFrom(price),
	}
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	sqlite, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "cache.db"), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	out := map[string]Backend{
		"memory": NewMemoryBackend(),
		"sqlite": sqlite,
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rb, err := NewRedisBackend(context.Background(), addr, "", 0, "valuesentinel-test-"+t.Name(), logger.Nop())
		require.NoError(t, err)
		_, _ = rb.Clear(context.Background())
		t.Cleanup(func() {
			_, _ = rb.Clear(context.Background())
			rb.Close()
		})
		out["redis"] = rb
	}
	return out
}

func TestCache_GetPutStats(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := &fakeClock{t: time.Date(2026, 2, 1, 5, 0, 0, 0, time.UTC)}
			c := New(b, 24*time.Hour, logger.Nop())
			c.SetClock(clock.Now)

			_, found, err := c.Get(ctx, "AAPL")
			require.NoError(t, err)
			assert.False(t, found, "never-fetched ticker must be absent")

			st, err := c.Stats(ctx)
			require.NoError(t, err)
			assert.Zero(t, st.Total)
			assert.Nil(t, st.Oldest)

			_, err = c.Put(ctx, rec("aapl", 150))
			require.NoError(t, err)
			oldest := clock.Now()

			clock.Advance(25 * time.Hour)
			_, err = c.Put(ctx, rec("MSFT", 300))
			require.NoError(t, err)

			e, found, err := c.Get(ctx, "AAPL")
			require.NoError(t, err)
			require.True(t, found)
			assert.False(t, c.IsFresh(e), "entry older than ttl must be stale")
			assert.Equal(t, 150.0, e.Record.Snapshot.Price.Float64)
			assert.Equal(t, []float64{1, 2}, e.Record.Snapshot.Revenues)
			assert.False(t, e.Record.Snapshot.EPS.Valid, "undefined fields survive a round trip")

			st, err = c.Stats(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, st.Total)
			assert.Equal(t, 1, st.Fresh)
			assert.Equal(t, 1, st.Stale)
			require.NotNil(t, st.Oldest)
			require.NotNil(t, st.Newest)
			assert.True(t, st.Oldest.Equal(oldest))
			assert.True(t, st.Newest.Equal(clock.Now()))
			assert.Equal(t, b.Name(), st.Backend)

			found2, missing, err := c.GetMany(ctx, []string{"msft", "AAPL", "msft", "", "GOOG"})
			require.NoError(t, err)
			assert.Len(t, found2, 2)
			assert.Equal(t, []string{"GOOG"}, missing)

			n, err := c.Clear(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, n)
			all, err := c.All(ctx)
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestCacheEntry_FreshnessBoundary(t *testing.T) {
	now := time.Date(2026, 2, 1, 5, 0, 0, 0, time.UTC)
	ttl := 24 * time.Hour

	assert.False(t, model.CacheEntry{FetchedAt: now.Add(-ttl - time.Second)}.IsFresh(now, ttl))
	assert.False(t, model.CacheEntry{FetchedAt: now.Add(-ttl)}.IsFresh(now, ttl))
	assert.True(t, model.CacheEntry{FetchedAt: now}.IsFresh(now, ttl))
}

func TestCache_PutReplacesWholesale(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := New(b, time.Hour, logger.Nop())

			first := rec("XOM", 100)
			first.Snapshot.Sector = "Energy"
			_, err := c.Put(ctx, first)
			require.NoError(t, err)

			_, err = c.Put(ctx, rec("XOM", 110))
			require.NoError(t, err)

			e, _, err := c.Get(ctx, "XOM")
			require.NoError(t, err)
			assert.Equal(t, 110.0, e.Record.Snapshot.Price.Float64)
			assert.Empty(t, e.Record.Snapshot.Sector, "no field of the previous record may survive")
		})
	}
}

func TestMemoryBackend_IsolatesCallers(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryBackend(), time.Hour, logger.Nop())

	r := rec("IBM", 10)
	_, err := c.Put(ctx, r)
	require.NoError(t, err)
	r.Snapshot.Revenues[0] = 999

	e, _, err := c.Get(ctx, "IBM")
	require.NoError(t, err)
	assert.Equal(t, 1.0, e.Record.Snapshot.Revenues[0])
	e.Record.Snapshot.Revenues[0] = 777

	again, _, err := c.Get(ctx, "IBM")
	require.NoError(t, err)
	assert.Equal(t, 1.0, again.Record.Snapshot.Revenues[0])
}

func TestCache_ConcurrentReadersSeeWholeEntries(t *testing.T) {
	for name, b := range backends(t) {
		if name == "redis" {
			continue
		}
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := New(b, time.Hour, logger.Nop())
			_, err := c.Put(ctx, rec("KO", 1))
			require.NoError(t, err)

			var wg sync.WaitGroup
			stop := make(chan struct{})
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 2; i < 200; i++ {
					_, _ = c.Put(ctx, rec("KO", float64(i)))
				}
				close(stop)
			}()

			for r := 0; r < 4; r++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for {
						select {
						case <-stop:
							return
						default:
						}
						e, ok, err := c.Get(ctx, "KO")
						if err != nil || !ok {
							continue
						}
						// Price and PE are written together; a torn read would split them.
						assert.Equal(t, e.Record.Snapshot.Price.Float64, e.Record.PE.Float64)
					}
				}()
			}
			wg.Wait()
		})
	}
}

func TestOpen(t *testing.T) {
	b, err := Open(context.Background(), Options{Backend: "memory"}, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "memory", b.Name())

	b, err = Open(context.Background(), Options{Backend: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "x", "c.db")}, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "sqlite", b.Name())
	require.NoError(t, b.Close())

	_, err = Open(context.Background(), Options{Backend: "etcd"}, logger.Nop())
	assert.Error(t, err)
}
