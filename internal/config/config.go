// Package config loads and saves the application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	// Storage configuration
	Storage StorageConfig `toml:"storage"`

	// Watch-folder auto-import configuration
	Watch WatchConfig `toml:"watch"`

	// Application configuration
	App AppConfig `toml:"app"`
}

// StorageConfig contains persistence settings.
type StorageConfig struct {
	Path             string `toml:"path"`              // Path to the state database (empty = default location)
	AutosaveInterval string `toml:"autosave_interval"` // Minimum interval between auto-saves (e.g., "500ms")
	PasswordEnv      string `toml:"password_env"`      // Env var holding the at-rest encryption password ("" = plaintext)
}

// WatchConfig contains watch-folder auto-import settings.
type WatchConfig struct {
	Enabled  bool   `toml:"enabled"`  // Watch a folder for dropped PNGs
	Dir      string `toml:"dir"`      // Directory to watch
	Debounce string `toml:"debounce"` // Settle time before importing (e.g., "300ms")
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool `toml:"debug_mode"` // Enable debug logging
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path:             "",
			AutosaveInterval: "500ms",
			PasswordEnv:      "",
		},
		Watch: WatchConfig{
			Enabled:  false,
			Dir:      "",
			Debounce: "300ms",
		},
		App: AppConfig{
			DebugMode: false,
		},
	}
}

// configPath returns the path to the configuration file.
func configPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".card-gallery")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.toml"), nil
}

// DefaultStoragePath returns the default location of the state database.
func DefaultStoragePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".card-gallery", "state.db"), nil
}

// Load loads the configuration from disk. Returns default config if the
// file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from an explicit path.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return &config, nil
}

// Save saves the configuration to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo saves the configuration to an explicit path.
func (c *Config) SaveTo(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.Storage.AutosaveInterval); err != nil {
		return fmt.Errorf("invalid autosave interval %q: %w", c.Storage.AutosaveInterval, err)
	}

	if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
		return fmt.Errorf("invalid watch debounce %q: %w", c.Watch.Debounce, err)
	}

	if c.Watch.Enabled && c.Watch.Dir == "" {
		return fmt.Errorf("watch enabled but no directory configured")
	}

	return nil
}

// GetAutosaveInterval returns the autosave interval as a duration.
func (c *Config) GetAutosaveInterval() (time.Duration, error) {
	return time.ParseDuration(c.Storage.AutosaveInterval)
}

// GetWatchDebounce returns the watch debounce as a duration.
func (c *Config) GetWatchDebounce() (time.Duration, error) {
	return time.ParseDuration(c.Watch.Debounce)
}
