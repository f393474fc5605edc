// Package service exposes the engine's operations: screening, single-ticker
// analysis, refresh, cache statistics and preset listing.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ValueSentinel/internal/logger"
	"ValueSentinel/internal/model"
	"ValueSentinel/internal/notifier"
	"ValueSentinel/internal/preset"
	"ValueSentinel/internal/refresh"
	"ValueSentinel/internal/screen"
	"ValueSentinel/internal/store"
	"ValueSentinel/internal/universe"
)

// digestSize is how many results a Telegram digest lists.
const digestSize = 10

// ScreenRun is a screen's results plus the freshness of the data behind them.
type ScreenRun struct {
	Screen      screen.Screen   `json:"screen"`
	Results     []screen.Result `json:"results"`
	Evaluated   int             `json:"evaluated"`
	Fresh       int             `json:"fresh"`
	Stale       int             `json:"stale"`
	Missing     []string        `json:"missing,omitempty"`
	TTL         time.Duration   `json:"ttl"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// Analysis is the cached view of one ticker.
type Analysis struct {
	Entry model.CacheEntry `json:"entry"`
	Stale bool             `json:"stale"`
	Age   time.Duration    `json:"age"`
}

// Service wires the cache, preset registry, refresh coordinator and universes.
type Service struct {
	cache     *store.Cache
	presets   *preset.Registry
	refresher *refresh.Coordinator
	universes *universe.Loader
	defaults  refresh.Options
	log       *logger.Logger
}

// New creates a Service. defaults seeds the options of every Refresh call.
func New(cache *store.Cache, presets *preset.Registry, refresher *refresh.Coordinator, universes *universe.Loader, defaults refresh.Options, log *logger.Logger) *Service {
	return &Service{
		cache:     cache,
		presets:   presets,
		refresher: refresher,
		universes: universes,
		defaults:  defaults,
		log:       log.WithField("component", "service"),
	}
}

// RunScreen evaluates s over the cached entries of the given tickers, or over
// every cached ticker when tickers is empty. It never fetches; absent tickers
// are listed in Missing and stale ones are flagged.
func (s *Service) RunScreen(ctx context.Context, sc screen.Screen, tickers []string, limit int) (*ScreenRun, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, &model.InvalidCriterionError{Input: fmt.Sprint(limit), Reason: "limit must not be negative"}
	}

	var (
		entries []model.CacheEntry
		missing []string
		err     error
	)
	if len(tickers) == 0 {
		entries, err = s.cache.All(ctx)
	} else {
		entries, missing, err = s.cache.GetMany(ctx, tickers)
	}
	if err != nil {
		return nil, fmt.Errorf("load cache: %w", err)
	}

	now := s.cache.Now()
	run := &ScreenRun{
		Screen:      sc,
		Evaluated:   len(entries),
		Missing:     missing,
		TTL:         s.cache.TTL(),
		GeneratedAt: now,
	}
	for _, e := range entries {
		if e.IsFresh(now, run.TTL) {
			run.Fresh++
		} else {
			run.Stale++
		}
	}
	run.Results = screen.Run(entries, sc, limit, now, run.TTL)

	s.log.WithFields(map[string]interface{}{
		"screen":    sc.Name,
		"evaluated": run.Evaluated,
		"passed":    len(run.Results),
		"stale":     run.Stale,
		"missing":   len(run.Missing),
	}).Debug("screen finished")
	return run, nil
}

// RunPreset runs a named preset. An unknown name returns *model.UnknownPresetError.
func (s *Service) RunPreset(ctx context.Context, name string, tickers []string, limit int) (*ScreenRun, error) {
	p, err := s.presets.Get(name)
	if err != nil {
		return nil, err
	}
	return s.RunScreen(ctx, p.Screen, tickers, limit)
}

// Preset returns a registered preset by name.
func (s *Service) Preset(name string) (preset.Preset, error) {
	return s.presets.Get(name)
}

// Analyze returns the cached record for one ticker, stale or not. It never
// fetches; a ticker that was never refreshed returns *model.NotCachedError.
func (s *Service) Analyze(ctx context.Context, ticker string) (*Analysis, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, &model.NotCachedError{Ticker: ticker}
	}
	e, found, err := s.cache.Get(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", ticker, err)
	}
	if !found {
		return nil, &model.NotCachedError{Ticker: ticker}
	}
	now := s.cache.Now()
	return &Analysis{
		Entry: e,
		Stale: !e.IsFresh(now, s.cache.TTL()),
		Age:   e.Age(now),
	}, nil
}

// Refresh resolves the universe spec and refreshes it, waiting for any
// active run. A negative delay keeps the default pacing.
func (s *Service) Refresh(ctx context.Context, universeSpec string, delay time.Duration, skipFresh bool) (*refresh.Summary, error) {
	label, tickers, err := s.universes.Resolve(universeSpec)
	if err != nil {
		return nil, err
	}
	opts := s.defaults
	opts.Universe = label
	opts.SkipFresh = skipFresh
	if delay >= 0 {
		opts.Delay = delay
	}
	return s.refresher.Refresh(ctx, tickers, opts)
}

// RefreshStatus reports the coordinator state.
func (s *Service) RefreshStatus() refresh.Status {
	return s.refresher.Status()
}

// CacheStats summarises the cache.
func (s *Service) CacheStats(ctx context.Context) (store.Stats, error) {
	return s.cache.Stats(ctx)
}

// ClearCache drops every cached entry.
func (s *Service) ClearCache(ctx context.Context) (int, error) {
	return s.cache.Clear(ctx)
}

// ListPresets returns every preset in registration order.
func (s *Service) ListPresets() []preset.Preset {
	return s.presets.List()
}

// Universes lists the available universe names.
func (s *Service) Universes() ([]string, error) {
	return s.universes.Names()
}

// ResolveUniverse turns a universe spec into a label and tickers.
func (s *Service) ResolveUniverse(spec string) (string, []string, error) {
	return s.universes.Resolve(spec)
}

// Digest runs a preset over the whole cache and formats it for Telegram.
func (s *Service) Digest(ctx context.Context, presetName string) (string, error) {
	run, err := s.RunPreset(ctx, presetName, nil, 0)
	if err != nil {
		return "", err
	}
	return notifier.FormatScreenDigest(run.Screen.Name, run.Results, digestSize), nil
}
