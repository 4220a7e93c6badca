package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the terminal's runtime configuration.
type Config struct {
	// GatewayURL is the base URL of the back-office API.
	GatewayURL string `yaml:"gateway_url"`
	// DBPath is the local SQLite database file.
	DBPath string `yaml:"db_path"`
	// Port the HTTP server listens on.
	Port int `yaml:"port"`
	// ScanWindowSeconds bounds how long a scan attempt may run
	// before it is reported as timed out.
	ScanWindowSeconds int `yaml:"scan_window_seconds"`
	// SessionHours bounds how long a login stays valid locally.
	SessionHours int `yaml:"session_hours"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		GatewayURL:        "http://localhost:8000",
		DBPath:            "storescan.db",
		Port:              8090,
		ScanWindowSeconds: 4,
		SessionHours:      12,
	}
}

// Load reads configuration from a YAML file. A missing file yields
// the defaults; environment variables override either.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	if cfg.ScanWindowSeconds <= 0 {
		cfg.ScanWindowSeconds = 4
	}
	if cfg.SessionHours <= 0 {
		cfg.SessionHours = 12
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("STORESCAN_GATEWAY_URL"); v != "" {
		c.GatewayURL = v
	}
	if v := os.Getenv("STORESCAN_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("STORESCAN_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
}
