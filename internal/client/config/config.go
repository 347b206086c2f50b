// Package config handles configuration for the authkeeper CLI client:
// defaults, JSON overlay, environment and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// EnvPrefix is prepended to every environment variable read by the client.
const EnvPrefix = "AUTHKEEPER_CLIENT_"

// Config holds runtime settings for the authkeeper CLI.
//
// Fields:
//   - ServerURL: base URL of the authkeeper HTTP API.
//   - SessionFile: where the token and user of the last sign-in are kept.
//   - RequestTimeout: per-request limit for API calls.
type Config struct {
	ServerURL      string        `env:"SERVER_URL"`
	SessionFile    string        `env:"SESSION_FILE"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:8080"
	c.SessionFile = defaultSessionFile()
	c.RequestTimeout = 10 * time.Second
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".authkeeper", "session.json")
}

// Load constructs a Config, applies defaults, then overlays values from
// JSON (if -c/-config is given), the environment and args. Later sources
// take precedence over earlier ones.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseEnv(cfg); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("server URL is required")
	}
	return cfg, nil
}
