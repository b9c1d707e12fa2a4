// Package config provides configuration management for the virtual trading application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	apperrors "virtual-trader/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Trading Trading `mapstructure:"trading"`
	Quotes  Quotes  `mapstructure:"quotes"`
	Limits  Limits  `mapstructure:"limits"`
	UI      UI      `mapstructure:"ui"`
	Logging Logging `mapstructure:"logging"`

	// Dir is the directory the config was loaded from. The database
	// file lives alongside the config file.
	Dir string `mapstructure:"-" json:"-"`
}

// Trading holds trading-related configuration.
type Trading struct {
	InitialBalance float64 `mapstructure:"initial_balance"`
	Currency       string  `mapstructure:"currency"`
}

// Quotes holds quote-provider configuration.
type Quotes struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	WebsocketURL string        `mapstructure:"websocket_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// Limits holds free-tier usage limits.
type Limits struct {
	TradesPerDay   int `mapstructure:"trades_per_day"`
	WatchlistLimit int `mapstructure:"watchlist_limit"`
	DataDelayMins  int `mapstructure:"data_delay_mins"`
}

// UI holds UI-related configuration.
type UI struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
}

// Logging holds logging configuration.
type Logging struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/virtual-trader"
	}
	return filepath.Join(home, ".config", "virtual-trader")
}

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Trading: Trading{
			InitialBalance: 100000,
			Currency:       "INR",
		},
		Quotes: Quotes{
			BaseURL:      "https://finnhub.io/api/v1",
			WebsocketURL: "wss://ws.finnhub.io",
			Timeout:      10 * time.Second,
		},
		Limits: Limits{
			TradesPerDay:   5,
			WatchlistLimit: 10,
			DataDelayMins:  15,
		},
		UI: UI{
			ColorEnabled: true,
			DateFormat:   "2006-01-02",
		},
		Logging: Logging{
			Level:   "info",
			Console: true,
			File:    true,
		},
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing config
// file is not an error; defaults apply.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := Default()
	cfg.Dir = configDir

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("trading.initial_balance", cfg.Trading.InitialBalance)
	v.SetDefault("trading.currency", cfg.Trading.Currency)
	v.SetDefault("quotes.base_url", cfg.Quotes.BaseURL)
	v.SetDefault("quotes.websocket_url", cfg.Quotes.WebsocketURL)
	v.SetDefault("quotes.timeout", cfg.Quotes.Timeout)
	v.SetDefault("limits.trades_per_day", cfg.Limits.TradesPerDay)
	v.SetDefault("limits.watchlist_limit", cfg.Limits.WatchlistLimit)
	v.SetDefault("limits.data_delay_mins", cfg.Limits.DataDelayMins)
	v.SetDefault("ui.color_enabled", cfg.UI.ColorEnabled)
	v.SetDefault("ui.date_format", cfg.UI.DateFormat)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.console", cfg.Logging.Console)
	v.SetDefault("logging.file", cfg.Logging.File)
}

func applyEnvOverrides(cfg *Config) {
	if key := os.Getenv("FINNHUB_API_KEY"); key != "" {
		cfg.Quotes.APIKey = key
	}
	if level := os.Getenv("VTRADER_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Trading.InitialBalance <= 0 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "trading.initial_balance must be positive, got %.2f", c.Trading.InitialBalance)
	}
	if c.Quotes.Timeout <= 0 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "quotes.timeout must be positive, got %s", c.Quotes.Timeout)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "logging.level %q not recognized", c.Logging.Level)
	}
	return nil
}

// DatabasePath returns the path of the SQLite database file.
func DatabasePath(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, "trader.db")
}
