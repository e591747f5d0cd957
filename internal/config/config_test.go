package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Library != "default" {
		t.Errorf("library = %q, expected default", cfg.Library)
	}
	if cfg.SyncTimeoutSeconds != 3600 {
		t.Errorf("sync timeout = %d, expected 3600", cfg.SyncTimeoutSeconds)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CHORUS_LIBRARY", "vinyl")
	t.Setenv("CHORUS_SYNC_TIMEOUT_SECONDS", "60")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Library != "vinyl" {
		t.Errorf("library = %q, expected vinyl", cfg.Library)
	}
	if cfg.SyncTimeoutSeconds != 60 {
		t.Errorf("sync timeout = %d, expected 60", cfg.SyncTimeoutSeconds)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "chorus")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := `
library = "flac-rips"
sync_paths = ["~/Music"]

[crossfade]
enabled = true
duration_seconds = 2.5
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Library != "flac-rips" {
		t.Errorf("library = %q", cfg.Library)
	}
	if len(cfg.SyncPaths) != 1 || cfg.SyncPaths[0] != filepath.Join(home, "Music") {
		t.Errorf("sync paths = %v, expected ~ expansion", cfg.SyncPaths)
	}
	if !cfg.Crossfade.Enabled || cfg.Crossfade.DurationSeconds != 2.5 {
		t.Errorf("crossfade = %+v", cfg.Crossfade)
	}
}
