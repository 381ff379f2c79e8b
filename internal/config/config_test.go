package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := &Config{
		DefaultProfile: "work",
		API:            APIConfig{BaseURL: "http://directory.local", Key: "secret", TimeoutSeconds: 10},
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
	if loaded.API.BaseURL != "http://directory.local" {
		t.Errorf("API.BaseURL = %q, want http://directory.local", loaded.API.BaseURL)
	}
	if loaded.API.TimeoutSeconds != 10 {
		t.Errorf("API.TimeoutSeconds = %d, want 10", loaded.API.TimeoutSeconds)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoadOrDefaultMissing(t *testing.T) {
	cfg, err := LoadOrDefault("/nonexistent/config.toml")
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.API.TimeoutSeconds != 30 {
		t.Errorf("TimeoutSeconds = %d, want default 30", cfg.API.TimeoutSeconds)
	}
	if cfg.Sync.RefreshIntervalSeconds != 300 {
		t.Errorf("RefreshIntervalSeconds = %d, want default 300", cfg.Sync.RefreshIntervalSeconds)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	// A config file without timeout/interval gets the reference values.
	if err := Save(path, &Config{DefaultProfile: "main"}); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.API.TimeoutSeconds != 30 {
		t.Errorf("TimeoutSeconds = %d, want 30", loaded.API.TimeoutSeconds)
	}
}

func TestEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, &Config{API: APIConfig{BaseURL: "http://old", Key: "old-key"}}); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PHONEBOOK_API_BASE_URL", "http://new")
	t.Setenv("PHONEBOOK_API_KEY", "new-key")

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.API.BaseURL != "http://new" {
		t.Errorf("API.BaseURL = %q, want env override http://new", loaded.API.BaseURL)
	}
	if loaded.API.Key != "new-key" {
		t.Errorf("API.Key = %q, want env override new-key", loaded.API.Key)
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, &Config{DefaultProfile: "main"}); err != nil {
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
