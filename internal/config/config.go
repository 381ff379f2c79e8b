package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.phonebook/config.toml.
type Config struct {
	DefaultProfile string       `toml:"default_profile"`
	API            APIConfig    `toml:"api"`
	Sync           SyncConfig   `toml:"sync"`
	Device         DeviceConfig `toml:"device"`
}

// APIConfig configures the remote directory client.
type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	Key            string `toml:"key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// SyncConfig configures the background refresh loop.
type SyncConfig struct {
	RefreshIntervalSeconds int `toml:"refresh_interval_seconds"`
}

// DeviceConfig configures the device address-book adapter.
type DeviceConfig struct {
	BookPath string `toml:"book_path"`
}

// Default returns the reference deployment settings.
func Default() *Config {
	return &Config{
		API:  APIConfig{TimeoutSeconds: 30},
		Sync: SyncConfig{RefreshIntervalSeconds: 300},
	}
}

// Load reads config from the given path. Returns zero config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

// LoadOrDefault reads config from path, falling back to defaults (plus env
// overrides) when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		cfg = Default()
		cfg.applyEnv()
		return cfg, nil
	}
	return cfg, err
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// Timeout returns the directory request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// RefreshInterval returns the background refresh period.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Sync.RefreshIntervalSeconds) * time.Second
}

func (c *Config) applyDefaults() {
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = 30
	}
	if c.Sync.RefreshIntervalSeconds <= 0 {
		c.Sync.RefreshIntervalSeconds = 300
	}
}

// applyEnv lets deploy environments inject the endpoint and key without
// editing the config file. A .env file loaded by the daemon feeds these.
func (c *Config) applyEnv() {
	if v := os.Getenv("PHONEBOOK_API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("PHONEBOOK_API_KEY"); v != "" {
		c.API.Key = v
	}
}
