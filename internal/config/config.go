package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.spendtrail/config.toml.
type Config struct {
	DefaultProfile string `toml:"default_profile"`

	API      APIConfig      `toml:"api"`
	SMS      SMSConfig      `toml:"sms"`
	Location LocationConfig `toml:"location"`
	Storage  StorageConfig  `toml:"storage"`
	Sync     SyncConfig     `toml:"sync"`
}

// APIConfig configures the remote transaction API.
type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	WebhookKey     string `toml:"webhook_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the HTTP client timeout for remote calls.
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SMSConfig configures message classification and the ingestion gate.
// Empty sender/keyword lists fall back to the built-in defaults.
type SMSConfig struct {
	AutoSyncDefault bool     `toml:"auto_sync_default"`
	BankSenders     []string `toml:"bank_senders"`
	Keywords        []string `toml:"keywords"`
}

// LocationConfig configures best-effort location enrichment. When Lat/Lng
// are set the daemon reports that fixed position; otherwise enrichment
// degrades to null coordinates.
type LocationConfig struct {
	Lat       *float64 `toml:"lat"`
	Lng       *float64 `toml:"lng"`
	TimeoutMS int      `toml:"timeout_ms"`
}

// Timeout returns the enrichment deadline. Deliberately short: the lookup
// runs unattended and must never stall ingestion.
func (c LocationConfig) Timeout() time.Duration {
	if c.TimeoutMS <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// StorageConfig selects the key-value backend holding queue state.
type StorageConfig struct {
	Backend       string `toml:"backend"` // "sqlite" (default) or "redis"
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// SyncConfig configures the background drain of the pending queue.
type SyncConfig struct {
	IntervalSeconds int `toml:"interval_seconds"` // 0 disables the ticker
}

// Interval returns the background drain period, zero when disabled.
func (c SyncConfig) Interval() time.Duration {
	if c.IntervalSeconds <= 0 {
		return 0
	}
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "http://localhost:8000/api/v1",
			TimeoutSeconds: 10,
		},
		Storage: StorageConfig{Backend: "sqlite"},
	}
}

// Load reads config from the given path. Returns an error if file missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault reads config from the given path, falling back to the
// built-in defaults when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return Default(), nil
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
