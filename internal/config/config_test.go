package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/partdesk.db")
	if cfg.Database.Path != "/tmp/partdesk.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if cfg.UseRemote() {
		t.Fatal("expected local workspace by default")
	}
	if cfg.Tracking.PollMinutes != 30 {
		t.Fatalf("unexpected poll minutes %d", cfg.Tracking.PollMinutes)
	}
	if !cfg.Board.ShowVendor || !cfg.Board.ShowTracking {
		t.Fatal("expected vendor/tracking visible by default")
	}
	if cfg.Board.ShowCosts {
		t.Fatal("expected costs hidden by default")
	}
	if cfg.Keys.Undo != "z" {
		t.Fatalf("unexpected undo key %q", cfg.Keys.Undo)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default("/tmp/partdesk.db")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != defaults.Database.Path {
		t.Fatalf("expected default db path, got %q", cfg.Database.Path)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[server]
base_url = "https://orders.team1234.org"
session_token = "tok-1"

[tracking]
poll_minutes = 5

[board]
show_costs = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path, Default("/tmp/default.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.UseRemote() || cfg.Server.SessionToken != "tok-1" {
		t.Fatalf("unexpected server config %#v", cfg.Server)
	}
	if cfg.Tracking.PollMinutes != 5 {
		t.Fatalf("unexpected poll minutes %d", cfg.Tracking.PollMinutes)
	}
	if !cfg.Board.ShowCosts {
		t.Fatal("expected costs visible from config override")
	}
	if cfg.Database.Path != "/tmp/default.db" {
		t.Fatalf("expected default db path preserved, got %q", cfg.Database.Path)
	}
}

func TestLoadRejectsInvalidBaseURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[server]
base_url = "not a url"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := Load(path, Default("/tmp/default.db")); err == nil {
		t.Fatal("expected error for invalid base_url")
	}
}

func TestValidateRequiresDatabaseWithoutServer(t *testing.T) {
	cfg := Default("")
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when neither server nor database configured")
	}
	cfg.Server.BaseURL = "https://orders.team1234.org"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidateRejectsNegativePoll(t *testing.T) {
	cfg := Default("/tmp/partdesk.db")
	cfg.Tracking.PollMinutes = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative poll_minutes")
	}
}

func TestEnsureConfigDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "config.toml")
	if err := EnsureConfigDir(target); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	if _, err := os.Stat(filepath.Dir(target)); err != nil {
		t.Fatalf("expected dir to exist, stat error %v", err)
	}
}
