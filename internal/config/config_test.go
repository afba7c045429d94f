package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockpulse/stockpulse-go/common"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		common.EnvAPIToken, common.EnvRESTBaseURL, common.EnvStreamBaseURL,
		EnvSymbols, EnvRefreshCron, EnvLogLevel, EnvLogFormat, EnvTracing,
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, common.DefaultRESTBaseURL, cfg.API.RESTBaseURL)
	assert.Equal(t, common.DefaultStreamBaseURL, cfg.API.StreamBaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, DefaultSymbols, cfg.Watchlist.Symbols)
	assert.Equal(t, "Apple Inc.", cfg.Watchlist.Names["AAPL"])
	assert.Equal(t, 1, cfg.Watchlist.Concurrency)
	assert.Equal(t, "json", cfg.Stream.Encoding)
	assert.Equal(t, 20, cfg.Stream.ReconnectLimit)
	assert.Equal(t, 150*time.Millisecond, cfg.Stream.ReconnectDelay)
	assert.Equal(t, 10*time.Second, cfg.Stream.ConnectTimeout)
	assert.Equal(t, 90, cfg.Detail.LookbackDays)
	assert.Equal(t, 20, cfg.Detail.MovingAverageWindow)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.False(t, cfg.Tracing.Enabled)

	// no token
	assert.Error(t, cfg.Validate())

	// the defaults must not be shared
	cfg.Watchlist.Names["AAPL"] = "changed"
	assert.Equal(t, "Apple Inc.", DefaultNames["AAPL"])
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
api:
  token: file-token
  timeout: 3s
watchlist:
  symbols: [RELIANCE.NS, AAPL]
  names:
    RELIANCE.NS: Reliance Industries
  refresh_cron: "*/30 * * * * *"
  concurrency: 4
stream:
  encoding: msgpack
  reconnect_delay: 1s
detail:
  lookback_days: 30
log:
  level: debug
  format: json
tracing:
  enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "file-token", cfg.API.Token)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, []string{"RELIANCE.NS", "AAPL"}, cfg.Watchlist.Symbols)
	assert.Equal(t, map[string]string{"RELIANCE.NS": "Reliance Industries"}, cfg.Watchlist.Names)
	assert.Equal(t, "*/30 * * * * *", cfg.Watchlist.RefreshCron)
	assert.Equal(t, 4, cfg.Watchlist.Concurrency)
	assert.Equal(t, "msgpack", cfg.Stream.Encoding)
	assert.Equal(t, time.Second, cfg.Stream.ReconnectDelay)
	assert.Equal(t, 30, cfg.Detail.LookbackDays)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "stockpulse", cfg.Tracing.ServiceName)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
api:
  token: file-token
watchlist:
  symbols: [AAPL]
`)
	t.Setenv(common.EnvAPIToken, "env-token")
	t.Setenv(common.EnvStreamBaseURL, "ws://localhost:9000")
	t.Setenv(EnvSymbols, " msft, ,nvda ")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvTracing, "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.API.Token)
	assert.Equal(t, "ws://localhost:9000", cfg.API.StreamBaseURL)
	assert.Equal(t, []string{"MSFT", "NVDA"}, cfg.Watchlist.Symbols)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Tracing.Enabled)
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "api: [unterminated")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	for _, tt := range []struct {
		name   string
		modify func(c *Config)
	}{
		{name: "empty symbol", modify: func(c *Config) { c.Watchlist.Symbols = []string{"AAPL", " "} }},
		{name: "encoding", modify: func(c *Config) { c.Stream.Encoding = "xml" }},
		{name: "log format", modify: func(c *Config) { c.Log.Format = "logfmt" }},
		{name: "reconnect limit", modify: func(c *Config) { c.Stream.ReconnectLimit = -1 }},
		{name: "concurrency", modify: func(c *Config) { c.Watchlist.Concurrency = -2 }},
	} {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			cfg.API.Token = "token"
			require.NoError(t, cfg.Validate())

			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
