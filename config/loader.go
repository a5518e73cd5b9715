package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	// UserConfigDir is the directory for user-level config.
	UserConfigDir = ".config/authware"
	// UserConfigFile is the name of the user-level config file.
	UserConfigFile = "config.yaml"

	// Environment variable overrides.
	EnvEndpoint        = "AUTHWARE_ENDPOINT"
	EnvCatalogEndpoint = "AUTHWARE_CATALOG_ENDPOINT"
	EnvStorePath       = "AUTHWARE_STORE_PATH"
	EnvTimeout         = "AUTHWARE_TIMEOUT"
	EnvLogLevel        = "AUTHWARE_LOG_LEVEL"
)

// Loader handles configuration loading with layered precedence.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new configuration loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/authware/config.yaml)
// 3. Explicit config file, when path is non-empty
// 4. Environment variables
func (l *Loader) Load(path string) (*Config, error) {
	config := DefaultConfig()

	userConfigPath := l.userConfigPath()
	if userConfig, err := LoadFromFile(userConfigPath); err == nil {
		l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
		config.Merge(userConfig)
	} else if !errors.Is(err, os.ErrNotExist) {
		l.logger.Warn("Failed to load user config",
			slog.String("path", userConfigPath), slog.String("error", err.Error()))
	}

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded config file", slog.String("path", path))
		config.Merge(fileConfig)
	}

	l.applyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// EnsureUserConfig creates the user config file with defaults if it
// does not exist.
func (l *Loader) EnsureUserConfig() error {
	userConfigPath := l.userConfigPath()
	if _, err := os.Stat(userConfigPath); err == nil {
		return nil
	}

	config := DefaultConfig()
	if err := config.SaveToFile(userConfigPath); err != nil {
		return err
	}
	l.logger.Info("Created default user config", slog.String("path", userConfigPath))
	return nil
}

// applyEnv overlays environment variable overrides.
func (l *Loader) applyEnv(config *Config) {
	if v := os.Getenv(EnvEndpoint); v != "" {
		config.API.Endpoint = v
	}
	if v := os.Getenv(EnvCatalogEndpoint); v != "" {
		config.Catalog.Endpoint = v
	}
	if v := os.Getenv(EnvStorePath); v != "" {
		config.Store.Path = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.API.Timeout = d
		} else {
			l.logger.Warn("Ignoring invalid timeout override",
				slog.String("value", v))
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		config.Log.Level = v
	}
}

func (l *Loader) userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}
