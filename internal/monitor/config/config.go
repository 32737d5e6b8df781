package config

import (
	"fmt"
	"time"

	"stock-price-alert/pkg/common"
	"stock-price-alert/pkg/config"
)

// Storage selects the alert store backend.
type Storage struct {
	Driver string `mapstructure:"driver"` // json or sqlite
	Path   string `mapstructure:"path"`
}

// Monitor holds the polling loop configuration.
type Monitor struct {
	Interval         time.Duration `mapstructure:"interval"`
	MaxIterations    int           `mapstructure:"max_iterations"`
	FetchTimeout     time.Duration `mapstructure:"fetch_timeout"`
	FetchConcurrency int           `mapstructure:"fetch_concurrency"`
}

// YahooFinance holds the configuration for the Yahoo Finance chart API.
type YahooFinance struct {
	BaseURL             string        `mapstructure:"base_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	CacheTTL            time.Duration `mapstructure:"cache_ttl"`
}

// Notifier lists notification backends in order of preference.
type Notifier struct {
	Backends []string `mapstructure:"backends"`
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// LastPrice configures recording of fetched prices in Redis.
type LastPrice struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// Config holds the full configuration of the alert monitor.
type Config struct {
	App          config.App    `mapstructure:"app"`
	Logger       config.Logger `mapstructure:"logger"`
	Storage      Storage       `mapstructure:"storage"`
	Monitor      Monitor       `mapstructure:"monitor"`
	YahooFinance YahooFinance  `mapstructure:"yahoo_finance"`
	Notifier     Notifier      `mapstructure:"notifier"`
	Telegram     Telegram      `mapstructure:"telegram"`
	Redis        config.Redis  `mapstructure:"redis"`
	LastPrice    LastPrice     `mapstructure:"last_price"`
	API          config.API    `mapstructure:"api"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"app.name":                             "price-alert",
		"app.env":                              "development",
		"logger.level":                         "info",
		"logger.encoding":                      "console",
		"storage.driver":                       "json",
		"storage.path":                         common.DefaultAlertsFile,
		"monitor.interval":                     common.DefaultMonitorInterval,
		"monitor.max_iterations":               0,
		"monitor.fetch_timeout":                10 * time.Second,
		"monitor.fetch_concurrency":            4,
		"yahoo_finance.base_url":               "https://query1.finance.yahoo.com",
		"yahoo_finance.timeout":                10 * time.Second,
		"yahoo_finance.max_request_per_minute": 60,
		"yahoo_finance.cache_ttl":              0,
		"notifier.backends":                    []string{"desktop", "telegram", "log"},
		"telegram.bot_token":                   "",
		"telegram.chat_id":                     0,
		"redis.enabled":                        false,
		"redis.host":                           "localhost",
		"redis.port":                           6379,
		"redis.password":                       "",
		"redis.db":                             0,
		"redis.pool_size":                      5,
		"last_price.ttl":                       10 * time.Minute,
		"api.host":                             "",
		"api.port":                             8080,
	}
}

// Load loads the monitor configuration from the given path. The file is
// optional; defaults and environment variables fill the rest.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg, defaults()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "json", "sqlite":
	default:
		return fmt.Errorf("storage.driver must be json or sqlite, got %q", c.Storage.Driver)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path must not be empty")
	}
	if c.Monitor.Interval < common.MinMonitorInterval {
		return fmt.Errorf("monitor.interval must be at least %s, got %s", common.MinMonitorInterval, c.Monitor.Interval)
	}
	if c.Monitor.MaxIterations < 0 {
		return fmt.Errorf("monitor.max_iterations must not be negative")
	}
	if c.YahooFinance.MaxRequestPerMinute <= 0 {
		return fmt.Errorf("yahoo_finance.max_request_per_minute must be positive")
	}
	return nil
}
