package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, "market:\n  tickers: [\"2222\"]\n"))
	require.NoError(t, err)

	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, 8000, c.Server.Port)
	assert.Equal(t, 10*time.Second, c.Market.RefreshInterval)
	assert.Equal(t, 60*time.Second, c.Market.CacheTTL)
	assert.Equal(t, 3*time.Second, c.Engine.DecisionInterval)
	assert.Equal(t, -500.0, c.Engine.PnLMin)
	assert.Equal(t, 100, c.Ledger.SignalCapacity)
	assert.Equal(t, 50, c.Ledger.VerdictCapacity)
	assert.Equal(t, 100000.0, c.Challenge.CapitalBase)
	assert.Equal(t, []string{"friday", "saturday"}, c.Challenge.Weekend)
	assert.Equal(t, "none", c.Archive.Backend)
	assert.Equal(t, -1, c.Kafka.RequiredAcks)
	assert.True(t, c.Challenge.AutoStart)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, `
market:
  tickers: ["2222", "1120"]
  source: simulated
challenge:
  auto_start: false
engine:
  emission:
    trend: 0.5
`))
	require.NoError(t, err)
	assert.Equal(t, "simulated", c.Market.Source)
	assert.False(t, c.Challenge.AutoStart)
	assert.Equal(t, 0.5, c.Engine.Emission["trend"])
}

func TestApplyEnv(t *testing.T) {
	c, err := parse(writeConfig(t, "market:\n  tickers: [\"2222\"]\n"))
	require.NoError(t, err)

	env := map[string]string{
		"ARENA_TICKERS":         "2222, 1120 ,,2010",
		"ARENA_PORT":            "9100",
		"ARENA_ARCHIVE_BACKEND": "kafka",
		"KAFKA_BROKERS":         "k1:9092,k2:9092",
		"REDIS_ADDR":            "cache:6380",
		"TELEGRAM_BOT_TOKEN":    "tok",
	}
	c.applyEnv(func(k string) string { return env[k] })

	assert.Equal(t, []string{"2222", "1120", "2010"}, c.Market.Tickers)
	assert.Equal(t, 9100, c.Server.Port)
	assert.Equal(t, "kafka", c.Archive.Backend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, "cache", c.Redis.Host)
	assert.Equal(t, 6380, c.Redis.Port)
	assert.True(t, c.Redis.Enabled)
	assert.Equal(t, "tok", c.Notifier.Telegram.Token)
	require.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		c, err := parse(writeConfig(t, "market:\n  tickers: [\"2222\"]\n"))
		require.NoError(t, err)
		return c
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no tickers", func(c *Config) { c.Market.Tickers = nil }},
		{"bad source", func(c *Config) { c.Market.Source = "bloomberg" }},
		{"redis cache without redis", func(c *Config) { c.Market.Cache = "redis" }},
		{"inverted pnl range", func(c *Config) { c.Engine.PnLMin = 10; c.Engine.PnLMax = 5 }},
		{"audit prob above one", func(c *Config) { c.Engine.AuditRejectProb = 1.5 }},
		{"kafka without brokers", func(c *Config) { c.Archive.Backend = "kafka" }},
		{"unknown backend", func(c *Config) { c.Archive.Backend = "s3" }},
		{"onesignal without keys", func(c *Config) { c.Notifier.Provider = "onesignal" }},
		{"queue delivery without redis", func(c *Config) { c.Notifier.Delivery = "queue" }},
		{"zero ledger", func(c *Config) { c.Ledger.SignalCapacity = 0 }},
	}
	require.NoError(t, base().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestShippedConfigIsValid(t *testing.T) {
	_, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	assert.NoError(t, err)
}
