package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stockpulse/stockpulse-go/common"
)

const (
	EnvSymbols     = "STOCKPULSE_SYMBOLS"
	EnvRefreshCron = "STOCKPULSE_REFRESH_CRON"
	EnvLogLevel    = "STOCKPULSE_LOG_LEVEL"
	EnvLogFormat   = "STOCKPULSE_LOG_FORMAT"
	EnvTracing     = "STOCKPULSE_TRACING_ENABLED"
)

// Config holds all application configuration.
type Config struct {
	API struct {
		Token         string        `yaml:"token"`
		RESTBaseURL   string        `yaml:"rest_base_url"`
		StreamBaseURL string        `yaml:"stream_base_url"`
		Timeout       time.Duration `yaml:"timeout"`
	} `yaml:"api"`
	Watchlist struct {
		Symbols     []string          `yaml:"symbols"`
		Names       map[string]string `yaml:"names"`
		RefreshCron string            `yaml:"refresh_cron"`
		Concurrency int               `yaml:"concurrency"`
	} `yaml:"watchlist"`
	Stream struct {
		Encoding       string        `yaml:"encoding"`
		ReconnectLimit int           `yaml:"reconnect_limit"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		ConnectTimeout time.Duration `yaml:"connect_timeout"`
	} `yaml:"stream"`
	Detail struct {
		LookbackDays        int `yaml:"lookback_days"`
		MovingAverageWindow int `yaml:"moving_average_window"`
	} `yaml:"detail"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Tracing struct {
		Enabled     bool   `yaml:"enabled"`
		ServiceName string `yaml:"service_name"`
	} `yaml:"tracing"`
}

// DefaultSymbols is the watchlist used when none is configured.
var DefaultSymbols = []string{"AAPL", "TSLA", "MSFT", "GOOGL", "AMZN", "NVDA"}

// DefaultNames are the display names of DefaultSymbols.
var DefaultNames = map[string]string{
	"AAPL":  "Apple Inc.",
	"TSLA":  "Tesla Inc.",
	"MSFT":  "Microsoft Corp.",
	"GOOGL": "Alphabet Inc.",
	"AMZN":  "Amazon.com Inc.",
	"NVDA":  "NVIDIA Corp.",
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

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

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(common.EnvAPIToken); v != "" {
		c.API.Token = v
	}
	if v := os.Getenv(common.EnvRESTBaseURL); v != "" {
		c.API.RESTBaseURL = v
	}
	if v := os.Getenv(common.EnvStreamBaseURL); v != "" {
		c.API.StreamBaseURL = v
	}
	if v := os.Getenv(EnvSymbols); v != "" {
		c.Watchlist.Symbols = splitSymbols(v)
	}
	if v := os.Getenv(EnvRefreshCron); v != "" {
		c.Watchlist.RefreshCron = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv(EnvTracing); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Tracing.Enabled = enabled
		}
	}
}

func (c *Config) applyDefaults() {
	if c.API.RESTBaseURL == "" {
		c.API.RESTBaseURL = common.DefaultRESTBaseURL
	}
	if c.API.StreamBaseURL == "" {
		c.API.StreamBaseURL = common.DefaultStreamBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 10 * time.Second
	}
	if len(c.Watchlist.Symbols) == 0 {
		c.Watchlist.Symbols = append([]string(nil), DefaultSymbols...)
	}
	if c.Watchlist.Names == nil {
		c.Watchlist.Names = make(map[string]string, len(DefaultNames))
		for k, v := range DefaultNames {
			c.Watchlist.Names[k] = v
		}
	}
	if c.Watchlist.RefreshCron == "" {
		c.Watchlist.RefreshCron = "0 */1 * * * *"
	}
	if c.Watchlist.Concurrency == 0 {
		c.Watchlist.Concurrency = 1
	}
	if c.Stream.Encoding == "" {
		c.Stream.Encoding = "json"
	}
	if c.Stream.ReconnectLimit == 0 {
		c.Stream.ReconnectLimit = 20
	}
	if c.Stream.ReconnectDelay == 0 {
		c.Stream.ReconnectDelay = 150 * time.Millisecond
	}
	if c.Stream.ConnectTimeout == 0 {
		c.Stream.ConnectTimeout = 10 * time.Second
	}
	if c.Detail.LookbackDays == 0 {
		c.Detail.LookbackDays = 90
	}
	if c.Detail.MovingAverageWindow == 0 {
		c.Detail.MovingAverageWindow = 20
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "stockpulse"
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.API.Token == "" {
		return fmt.Errorf("api.token is required (or set %s)", common.EnvAPIToken)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	for _, s := range c.Watchlist.Symbols {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("watchlist.symbols must not contain empty symbols")
		}
	}
	if c.Watchlist.Concurrency < 0 {
		return fmt.Errorf("watchlist.concurrency must not be negative")
	}
	switch c.Stream.Encoding {
	case "json", "msgpack":
	default:
		return fmt.Errorf("stream.encoding must be json or msgpack, got %q", c.Stream.Encoding)
	}
	if c.Stream.ReconnectLimit < 0 {
		return fmt.Errorf("stream.reconnect_limit must not be negative")
	}
	if c.Detail.LookbackDays < 0 || c.Detail.MovingAverageWindow < 0 {
		return fmt.Errorf("detail settings must not be negative")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

func splitSymbols(s string) []string {
	var symbols []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			symbols = append(symbols, strings.ToUpper(part))
		}
	}
	return symbols
}
