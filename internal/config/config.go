package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ValueSentinel/internal/valuation"
)

// Source kinds.
const (
	SourceYahoo  = "yahoo"
	SourceRemote = "remote"
	SourceStatic = "static"
)

// Config holds all application configuration.
type Config struct {
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Source struct {
		Kind    string        `yaml:"kind"`
		BaseURL string        `yaml:"base_url"`
		APIKey  string        `yaml:"api_key"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"source"`
	Cache struct {
		Backend    string        `yaml:"backend"`
		TTL        time.Duration `yaml:"ttl"`
		SQLitePath string        `yaml:"sqlite_path"`
		Redis      struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Refresh struct {
		Enabled     bool          `yaml:"enabled"`
		Hour        int           `yaml:"hour"`
		Minute      int           `yaml:"minute"`
		Universe    string        `yaml:"universe"`
		Delay       time.Duration `yaml:"delay"`
		MaxDelay    time.Duration `yaml:"max_delay"`
		RetryPasses int           `yaml:"retry_passes"`
		RetryPause  time.Duration `yaml:"retry_pause"`
		RunOnStart  bool          `yaml:"run_on_start"`
		Digest      []string      `yaml:"digest"`
	} `yaml:"refresh"`
	UniverseDir string          `yaml:"universe_dir"`
	Valuation   ValuationConfig `yaml:"valuation"`
	Telegram    struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// ValuationConfig overrides individual valuation assumptions. Unset fields keep
// the defaults from valuation.DefaultParams.
type ValuationConfig struct {
	GrowthOverride *float64 `yaml:"growth_override"`
	GrowthFloor    *float64 `yaml:"growth_floor"`
	GrowthCap      *float64 `yaml:"growth_cap"`
	DefaultGrowth  *float64 `yaml:"default_growth"`
	DiscountRate   *float64 `yaml:"discount_rate"`
	TerminalGrowth *float64 `yaml:"terminal_growth"`
	HorizonYears   *int     `yaml:"horizon_years"`
	TaxRate        *float64 `yaml:"tax_rate"`
	CostOfCapital  *float64 `yaml:"cost_of_capital"`
}

// Params merges the overrides onto the default parameters.
func (v ValuationConfig) Params() valuation.Params {
	p := valuation.DefaultParams()
	p.GrowthOverride = null.FloatFromPtr(v.GrowthOverride)
	setFloat(&p.GrowthFloor, v.GrowthFloor)
	setFloat(&p.GrowthCap, v.GrowthCap)
	setFloat(&p.DefaultGrowth, v.DefaultGrowth)
	setFloat(&p.DiscountRate, v.DiscountRate)
	setFloat(&p.TerminalGrowth, v.TerminalGrowth)
	setFloat(&p.TaxRate, v.TaxRate)
	setFloat(&p.CostOfCapital, v.CostOfCapital)
	if v.HorizonYears != nil {
		p.HorizonYears = *v.HorizonYears
	}
	return p
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// Defaults returns the configuration used when nothing is set. Load decodes
// the YAML file over it, so explicit zero values such as a 00:00 refresh or a
// zero delay are kept.
func Defaults() *Config {
	c := &Config{}
	c.Log.Level = "info"
	c.Log.Format = "console"
	c.Source.Kind = SourceYahoo
	c.Source.Timeout = 30 * time.Second
	c.Cache.Backend = "sqlite"
	c.Cache.TTL = 24 * time.Hour
	c.Cache.SQLitePath = "data/value_sentinel.db"
	c.Cache.Redis.Prefix = "valuesentinel"
	c.Refresh.Hour = 5
	c.Refresh.Universe = "all"
	c.Refresh.Delay = 2 * time.Second
	c.Refresh.MaxDelay = 15 * time.Second
	c.Refresh.RetryPasses = 3
	c.Refresh.RetryPause = 30 * time.Second
	c.UniverseDir = "universes"
	c.Metrics.Addr = ":9090"
	return c
}

// Load reads config from a YAML file over the defaults, then .env, then applies
// environment variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	// .env never overrides variables already set in the environment.
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Source.Kind = strings.ToLower(cfg.Source.Kind)
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"VALUESENTINEL_LOG_LEVEL":     &c.Log.Level,
		"VALUESENTINEL_LOG_FORMAT":    &c.Log.Format,
		"VALUESENTINEL_SOURCE":        &c.Source.Kind,
		"VALUESENTINEL_SOURCE_URL":    &c.Source.BaseURL,
		"VALUESENTINEL_API_KEY":       &c.Source.APIKey,
		"VALUESENTINEL_CACHE_BACKEND": &c.Cache.Backend,
		"VALUESENTINEL_SQLITE_PATH":   &c.Cache.SQLitePath,
		"VALUESENTINEL_UNIVERSE_DIR":  &c.UniverseDir,
		"VALUESENTINEL_UNIVERSE":      &c.Refresh.Universe,
		"VALUESENTINEL_METRICS_ADDR":  &c.Metrics.Addr,
		"REDIS_ADDR":                  &c.Cache.Redis.Addr,
		"REDIS_PASSWORD":              &c.Cache.Redis.Password,
		"TELEGRAM_BOT_TOKEN":          &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":            &c.Telegram.ChatID,
		"HTTPS_PROXY":                 &c.Proxy,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	dur := map[string]*time.Duration{
		"VALUESENTINEL_CACHE_TTL":     &c.Cache.TTL,
		"VALUESENTINEL_REFRESH_DELAY": &c.Refresh.Delay,
	}
	for key, dst := range dur {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}

	if v := os.Getenv("VALUESENTINEL_REFRESH_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("VALUESENTINEL_REFRESH_ENABLED: %w", err)
		}
		c.Refresh.Enabled = b
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		c.Cache.Redis.DB = n
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceYahoo, SourceStatic:
	case SourceRemote:
		if c.Source.BaseURL == "" {
			return fmt.Errorf("source.base_url is required for the remote source")
		}
	default:
		return fmt.Errorf("unknown source.kind %q", c.Source.Kind)
	}
	switch c.Cache.Backend {
	case "memory", "sqlite":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown cache.backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.Refresh.Hour < 0 || c.Refresh.Hour > 23 || c.Refresh.Minute < 0 || c.Refresh.Minute > 59 {
		return fmt.Errorf("refresh time %02d:%02d is invalid", c.Refresh.Hour, c.Refresh.Minute)
	}
	if c.Refresh.Delay < 0 || c.Refresh.MaxDelay < c.Refresh.Delay {
		return fmt.Errorf("refresh.max_delay must be at least refresh.delay")
	}
	if c.Refresh.RetryPasses < 0 {
		return fmt.Errorf("refresh.retry_passes must not be negative")
	}
	if err := c.Valuation.Params().Validate(); err != nil {
		return fmt.Errorf("valuation: %w", err)
	}
	return nil
}
