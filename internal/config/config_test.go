package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	lat := 28.6139
	cfg := &Config{
		DefaultProfile: "work",
		API: APIConfig{
			BaseURL:        "https://api.example.com/api/v1",
			WebhookKey:     "secret-key",
			TimeoutSeconds: 5,
		},
		SMS: SMSConfig{
			AutoSyncDefault: true,
			BankSenders:     []string{"VM-HDFC", "AX-ICICI"},
		},
		Location: LocationConfig{Lat: &lat},
		Storage:  StorageConfig{Backend: "redis", RedisAddr: "127.0.0.1:6379"},
		Sync:     SyncConfig{IntervalSeconds: 300},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultProfile != "work" {
		t.Errorf("DefaultProfile = %q, want %q", loaded.DefaultProfile, "work")
	}
	if loaded.API.WebhookKey != "secret-key" {
		t.Errorf("WebhookKey = %q, want secret-key", loaded.API.WebhookKey)
	}
	if len(loaded.SMS.BankSenders) != 2 {
		t.Errorf("BankSenders = %v, want 2 entries", loaded.SMS.BankSenders)
	}
	if loaded.Location.Lat == nil || *loaded.Location.Lat != lat {
		t.Errorf("Location.Lat = %v, want %v", loaded.Location.Lat, lat)
	}
	if loaded.Location.Lng != nil {
		t.Errorf("Location.Lng = %v, want nil when unset", loaded.Location.Lng)
	}
	if loaded.Storage.Backend != "redis" {
		t.Errorf("Storage.Backend = %q, want redis", loaded.Storage.Backend)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoadOrDefaultMissing(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	want := Default()
	if cfg.API.BaseURL != want.API.BaseURL {
		t.Errorf("BaseURL = %q, want default %q", cfg.API.BaseURL, want.API.BaseURL)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("Backend = %q, want sqlite", cfg.Storage.Backend)
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}

func TestDurationHelpers(t *testing.T) {
	if got := (APIConfig{}).Timeout(); got != 10*time.Second {
		t.Errorf("zero API timeout = %v, want 10s", got)
	}
	if got := (APIConfig{TimeoutSeconds: 3}).Timeout(); got != 3*time.Second {
		t.Errorf("API timeout = %v, want 3s", got)
	}
	if got := (LocationConfig{}).Timeout(); got != 3*time.Second {
		t.Errorf("zero location timeout = %v, want 3s", got)
	}
	if got := (LocationConfig{TimeoutMS: 250}).Timeout(); got != 250*time.Millisecond {
		t.Errorf("location timeout = %v, want 250ms", got)
	}
	if got := (SyncConfig{}).Interval(); got != 0 {
		t.Errorf("zero sync interval = %v, want 0 (disabled)", got)
	}
	if got := (SyncConfig{IntervalSeconds: 60}).Interval(); got != time.Minute {
		t.Errorf("sync interval = %v, want 1m", got)
	}
}
