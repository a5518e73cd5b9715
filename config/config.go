// Package config provides configuration loading for authware tooling.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete tool configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Catalog CatalogConfig `yaml:"catalog"`
	Store   StoreConfig   `yaml:"store"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// APIConfig configures the authentication backend connection.
type APIConfig struct {
	// Endpoint is the base URL of the backend (e.g. "https://api.example.com")
	Endpoint string `yaml:"endpoint"`
	// Timeout bounds individual requests (default: 30s)
	Timeout time.Duration `yaml:"timeout"`
}

// CatalogConfig configures the public product catalog.
type CatalogConfig struct {
	// Endpoint overrides the default catalog API base URL
	Endpoint string `yaml:"endpoint"`
}

// StoreConfig configures credential persistence.
type StoreConfig struct {
	// Path is the bbolt database file holding the session credential
	// (default: ~/.config/authware/session.db)
	Path string `yaml:"path"`
}

// MetricsConfig configures Prometheus instrumentation.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error" (default: "info")
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	path := ""
	if home, err := os.UserHomeDir(); err == nil {
		path = filepath.Join(home, ".config", "authware", "session.db")
	}
	return &Config{
		API: APIConfig{
			Timeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Path: path,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.API.Endpoint == "" {
		return fmt.Errorf("api.endpoint is required")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file on top of defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// SaveToFile writes the configuration as YAML, creating parent
// directories as needed.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Merge layers another config onto this one; non-zero values in other
// take precedence.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.API.Endpoint != "" {
		c.API.Endpoint = other.API.Endpoint
	}
	if other.API.Timeout != 0 {
		c.API.Timeout = other.API.Timeout
	}
	if other.Catalog.Endpoint != "" {
		c.Catalog.Endpoint = other.Catalog.Endpoint
	}
	if other.Store.Path != "" {
		c.Store.Path = other.Store.Path
	}
	if other.Metrics.Enabled {
		c.Metrics.Enabled = true
	}
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
}
