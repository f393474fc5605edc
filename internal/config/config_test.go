package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ValueSentinel/internal/model"
	"ValueSentinel/internal/scheduler"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, SourceYahoo, cfg.Source.Kind)
	assert.Equal(t, "sqlite", cfg.Cache.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 5, cfg.Refresh.Hour)
	assert.Equal(t, 2*time.Second, cfg.Refresh.Delay)
	assert.Equal(t, 3, cfg.Refresh.RetryPasses)
	assert.Equal(t, 0.10, cfg.Valuation.Params().DiscountRate)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	path := writeConfig(t, `
source:
  kind: remote
  base_url: http://localhost:8080
cache:
  backend: memory
  ttl: 12h
refresh:
  hour: 18
  minute: 30
  delay: 500ms
  retry_passes: 0
valuation:
  growth_override: 0.07
  discount_rate: 0.09
`)
	t.Setenv("VALUESENTINEL_CACHE_TTL", "6h")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, SourceRemote, cfg.Source.Kind)
	assert.Equal(t, 6*time.Hour, cfg.Cache.TTL, "env overrides yaml")
	assert.Equal(t, 18, cfg.Refresh.Hour)
	assert.Equal(t, 30, cfg.Refresh.Minute)
	assert.Equal(t, 500*time.Millisecond, cfg.Refresh.Delay)
	assert.Equal(t, 0, cfg.Refresh.RetryPasses)
	assert.Equal(t, "tok", cfg.Telegram.BotToken)

	p := cfg.Valuation.Params()
	assert.True(t, p.GrowthOverride.Valid)
	assert.Equal(t, 0.07, p.GrowthOverride.Float64)
	assert.Equal(t, 0.09, p.DiscountRate)
	assert.Equal(t, 0.03, p.TerminalGrowth)
}

func TestLoad_ExplicitZeroValuesKept(t *testing.T) {
	path := writeConfig(t, `
refresh:
  hour: 0
  minute: 0
  delay: 0s
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0, cfg.Refresh.Hour, "midnight is a valid refresh time")
	assert.Equal(t, 0, cfg.Refresh.Minute)
	assert.Equal(t, time.Duration(0), cfg.Refresh.Delay, "zero delay disables throttling")
	assert.Equal(t, 15*time.Second, cfg.Refresh.MaxDelay, "unset keys keep defaults")
	assert.Equal(t, 3, cfg.Refresh.RetryPasses)
	assert.Equal(t, "0 0 0 * * *", scheduler.DailySpec(cfg.Refresh.Hour, cfg.Refresh.Minute))
}

func TestLoad_BadEnvDuration(t *testing.T) {
	t.Setenv("VALUESENTINEL_REFRESH_DELAY", "soon")
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"remote without url": "source:\n  kind: remote\n",
		"unknown source":     "source:\n  kind: bloomberg\n",
		"redis without addr": "cache:\n  backend: redis\n",
		"bad hour":           "refresh:\n  hour: 25\n",
		"zero ttl":           "cache:\n  ttl: 0s\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("REDIS_ADDR", "")
			cfg, err := Load(writeConfig(t, body))
			require.NoError(t, err)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg, err := Load(writeConfig(t, "valuation:\n  discount_rate: 0.02\n"))
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.Validate(), model.ErrInvalidParams)
}
