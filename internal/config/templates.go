package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# virtual-trader configuration

[trading]
# Starting virtual balance for a fresh portfolio.
initial_balance = 100000.0
currency = "INR"

[quotes]
# Finnhub API key. Can also be set via FINNHUB_API_KEY.
api_key = ""
base_url = "https://finnhub.io/api/v1"
websocket_url = "wss://ws.finnhub.io"
timeout = "10s"

[limits]
# Free-tier usage limits. Premium subscribers are unlimited.
trades_per_day = 5
watchlist_limit = 10
data_delay_mins = 15

[ui]
color_enabled = true
date_format = "2006-01-02"

[logging]
level = "info"
console = true
file = true
`

// WriteDefaultConfig writes the default config template to the config directory.
// It refuses to overwrite an existing file.
func WriteDefaultConfig(configDir string) (string, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("config file already exists: %s", path)
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}
