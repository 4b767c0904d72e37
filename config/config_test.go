package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"popcorn/config"
)

func TestLoadCreatesDefaultsWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "settings.json")
	m := config.NewManager(path)

	settings, err := m.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if settings.Server.Port != 8080 {
		t.Fatalf("expected default port, got %d", settings.Server.Port)
	}
	if settings.Auth.Mode != "memory" {
		t.Fatalf("expected default auth mode, got %q", settings.Auth.Mode)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected settings file to be created: %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	m := config.NewManager(path)

	settings := config.DefaultSettings()
	settings.Server.Port = 9001
	settings.Auth.Mode = "local"
	settings.TMDb.APIKey = "k"
	if err := m.Save(settings); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := m.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Server.Port != 9001 || loaded.Auth.Mode != "local" || loaded.TMDb.APIKey != "k" {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := config.NewManager(path).Load(); err == nil {
		t.Fatalf("expected parse error for corrupt settings")
	}
}
