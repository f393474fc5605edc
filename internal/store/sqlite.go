package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"ValueSentinel/internal/logger"
	"ValueSentinel/internal/model"
)

// SQLiteBackend persists entries to a SQLite database, one row per ticker.
type SQLiteBackend struct {
	db  *sql.DB
	mu  sync.Mutex
	log *logger.Logger
}

// NewSQLiteBackend opens (or creates) the SQLite database and runs migrations.
func NewSQLiteBackend(dbPath string, log *logger.Logger) (*SQLiteBackend, error) {
	if dbPath == "" {
		return nil, errors.New("sqlite path is required")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets screens read while a refresh writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	b := &SQLiteBackend{db: db, log: log}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.WithField("path", dbPath).Info("sqlite cache opened")
	return b, nil
}

func (b *SQLiteBackend) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS stock_cache (
			ticker     TEXT PRIMARY KEY,
			data       TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stock_cache_fetched ON stock_cache(fetched_at)`,
	}
	for _, s := range stmts {
		if _, err := b.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (b *SQLiteBackend) Name() string { return "sqlite" }

func (b *SQLiteBackend) Load(ctx context.Context, ticker string) (model.CacheEntry, bool, error) {
	var (
		data      string
		fetchedAt int64
	)
	err := b.db.QueryRowContext(ctx,
		`SELECT data, fetched_at FROM stock_cache WHERE ticker = ?`, normalizeTicker(ticker),
	).Scan(&data, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CacheEntry{}, false, nil
	}
	if err != nil {
		return model.CacheEntry{}, false, fmt.Errorf("load %s: %w", ticker, err)
	}
	rec, err := decodeRecord([]byte(data))
	if err != nil {
		return model.CacheEntry{}, false, err
	}
	return model.CacheEntry{Record: rec, FetchedAt: time.Unix(0, fetchedAt).UTC()}, true, nil
}

func (b *SQLiteBackend) LoadAll(ctx context.Context) ([]model.CacheEntry, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT data, fetched_at FROM stock_cache ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("load all: %w", err)
	}
	defer rows.Close()

	var out []model.CacheEntry
	for rows.Next() {
		var (
			data      string
			fetchedAt int64
		)
		if err := rows.Scan(&data, &fetchedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		rec, err := decodeRecord([]byte(data))
		if err != nil {
			b.log.WithError(err).Warn("skipping undecodable cache row")
			continue
		}
		out = append(out, model.CacheEntry{Record: rec, FetchedAt: time.Unix(0, fetchedAt).UTC()})
	}
	return out, rows.Err()
}

// Save replaces the row for the ticker in a single statement.
func (b *SQLiteBackend) Save(ctx context.Context, entry model.CacheEntry) error {
	data, err := encodeRecord(entry.Record)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	_, err = b.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO stock_cache (ticker, data, fetched_at) VALUES (?, ?, ?)`,
		normalizeTicker(entry.Record.Ticker), string(data), entry.FetchedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", entry.Record.Ticker, err)
	}
	return nil
}

func (b *SQLiteBackend) Clear(ctx context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	res, err := b.db.ExecContext(ctx, `DELETE FROM stock_cache`)
	if err != nil {
		return 0, fmt.Errorf("clear: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (b *SQLiteBackend) Close() error {
	b.log.Info("closing sqlite cache")
	return b.db.Close()
}
