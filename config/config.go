// Package config loads application settings from an optional JSON file with
// environment variable overrides. A .env file in the working directory is
// honored when present.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/wamppus/don-futures-v1/internal/strategy"
)

// FeedConfig configures the market data source.
type FeedConfig struct {
	BaseURL         string `json:"base_url"`
	Username        string `json:"username"`
	APIKey          string `json:"api_key"`
	Symbol          string `json:"symbol"`
	IntervalMinutes int    `json:"interval_minutes"`
	WarmupBars      int    `json:"warmup_bars"`
}

// Interval returns the bar interval as a duration.
func (f FeedConfig) Interval() time.Duration {
	return time.Duration(f.IntervalMinutes) * time.Minute
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig configures optional Postgres persistence. An empty URL
// disables it.
type DatabaseConfig struct {
	URL string `json:"url"`
}

// RedisConfig configures the optional live state cache. An empty address
// disables it.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// LoggingConfig configures the structured logger and the JSONL journal.
type LoggingConfig struct {
	Level      string `json:"level"`
	JSONFormat bool   `json:"json_format"`
	JournalDir string `json:"journal_dir"`
}

// BacktestConfig configures replay runs.
type BacktestConfig struct {
	DataFile    string  `json:"data_file"`
	SlippagePts float64 `json:"slippage_pts"`
}

// Config is the full application configuration.
type Config struct {
	Strategy strategy.Config `json:"strategy"`
	Feed     FeedConfig      `json:"feed"`
	Server   ServerConfig    `json:"server"`
	Database DatabaseConfig  `json:"database"`
	Redis    RedisConfig     `json:"redis"`
	Logging  LoggingConfig   `json:"logging"`
	Backtest BacktestConfig  `json:"backtest"`
}

// Default returns the configuration used when no file is supplied: the
// validated ES strategy settings plus local service defaults.
func Default() Config {
	return Config{
		Strategy: strategy.Validated(),
		Feed: FeedConfig{
			BaseURL:         "https://api.topstepx.com",
			Symbol:          "ES",
			IntervalMinutes: 5,
			WarmupBars:      60,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:      "info",
			JournalDir: "logs",
		},
		Backtest: BacktestConfig{
			SlippagePts: 0,
		},
	}
}

// Load builds the configuration from defaults, an optional JSON file, and
// environment overrides, in that order.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Feed.BaseURL, "PROJECTX_BASE_URL")
	setString(&cfg.Feed.Username, "PROJECTX_USERNAME")
	setString(&cfg.Feed.APIKey, "PROJECTX_API_KEY")
	setString(&cfg.Feed.Symbol, "TRADE_SYMBOL")
	setInt(&cfg.Feed.IntervalMinutes, "BAR_INTERVAL_MINUTES")
	setInt(&cfg.Feed.WarmupBars, "WARMUP_BARS")

	setString(&cfg.Server.Host, "SERVER_HOST")
	setInt(&cfg.Server.Port, "SERVER_PORT")

	setString(&cfg.Database.URL, "DATABASE_URL")

	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")

	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.JournalDir, "JOURNAL_DIR")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Validate checks the loaded configuration.
func (c Config) Validate() error {
	if err := c.Strategy.Validate(); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	if c.Feed.Symbol == "" {
		return fmt.Errorf("feed: symbol is required")
	}
	if c.Feed.IntervalMinutes <= 0 {
		return fmt.Errorf("feed: interval_minutes must be positive, got %d", c.Feed.IntervalMinutes)
	}
	if c.Feed.WarmupBars < c.Strategy.ChannelPeriod+5 {
		return fmt.Errorf("feed: warmup_bars %d is below the %d bars the strategy needs",
			c.Feed.WarmupBars, c.Strategy.ChannelPeriod+5)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server: invalid port %d", c.Server.Port)
	}
	return nil
}
