package commands

import (
	"context"
	"fmt"

	"ValueSentinel/internal/collector"
	"ValueSentinel/internal/config"
	"ValueSentinel/internal/logger"
	"ValueSentinel/internal/preset"
	"ValueSentinel/internal/refresh"
	"ValueSentinel/internal/service"
	"ValueSentinel/internal/store"
	"ValueSentinel/internal/universe"
)

// app holds the wired components shared by every command.
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	cache     *store.Cache
	refresher *refresh.Coordinator
	defaults  refresh.Options
	svc       *service.Service
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	log := logger.New(level, cfg.Log.Format)

	backend, err := store.Open(ctx, store.Options{
		Backend:       cfg.Cache.Backend,
		SQLitePath:    cfg.Cache.SQLitePath,
		RedisAddr:     cfg.Cache.Redis.Addr,
		RedisPassword: cfg.Cache.Redis.Password,
		RedisDB:       cfg.Cache.Redis.DB,
		RedisPrefix:   cfg.Cache.Redis.Prefix,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	cache := store.New(backend, cfg.Cache.TTL, log)

	fetcher := newFetcher(cfg)
	log.WithField("source", fetcher.Name()).Debug("snapshot source selected")

	agg := collector.NewAggregator(fetcher, cfg.Valuation.Params(), log)
	coord := refresh.NewCoordinator(agg, cache, log)

	defaults := refresh.Options{
		Delay:          cfg.Refresh.Delay,
		MaxDelay:       cfg.Refresh.MaxDelay,
		MaxRetryPasses: cfg.Refresh.RetryPasses,
		RetryPause:     cfg.Refresh.RetryPause,
	}
	svc := service.New(cache, preset.Default(), coord, universe.NewLoader(cfg.UniverseDir), defaults, log)

	return &app{cfg: cfg, log: log, cache: cache, refresher: coord, defaults: defaults, svc: svc}, nil
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	switch cfg.Source.Kind {
	case config.SourceRemote:
		return collector.NewRemoteFetcher(cfg.Source.BaseURL, cfg.Source.APIKey, cfg.Proxy, cfg.Source.Timeout)
	case config.SourceStatic:
		return collector.NewStaticFetcher()
	default:
		return collector.NewYahooFetcher(cfg.Proxy, cfg.Source.Timeout)
	}
}

func (a *app) Close() {
	if err := a.cache.Close(); err != nil {
		a.log.WithError(err).Warn("close cache")
	}
}
