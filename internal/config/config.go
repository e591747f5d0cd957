// Package config loads the engine configuration: library identity,
// scan roots, plugin directory, and transport tuning.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "chorus"

// Config is the engine configuration.
type Config struct {
	// Library is the catalog name; data lives under
	// <xdg-data>/chorus/<library>/.
	Library string `koanf:"library"`

	// SyncPaths are the configured scan roots.
	SyncPaths []string `koanf:"sync_paths"`

	// PluginDir holds shared-library plugins. Empty skips discovery.
	PluginDir string `koanf:"plugin_dir"`

	// SyncTimeoutSeconds is the pause between scans; 0 waits for an
	// explicit restart.
	SyncTimeoutSeconds int `koanf:"sync_timeout_seconds"`

	// CacheSizeKB tunes the catalog page cache.
	CacheSizeKB int `koanf:"cache_size_kb"`

	Crossfade CrossfadeConfig `koanf:"crossfade"`

	// Output selects an audio output by name; empty uses the first
	// loaded one.
	Output string `koanf:"output"`
}

// CrossfadeConfig tunes the track handoff.
type CrossfadeConfig struct {
	Enabled         bool    `koanf:"enabled"`
	DurationSeconds float64 `koanf:"duration_seconds"`
}

// Load reads config.toml from the usual locations (~/.config/chorus,
// then the working directory), then applies CHORUS_* environment
// overrides.
func Load() (*Config, error) {
	k := koanf.New(".")

	for _, path := range configPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	// CHORUS_SYNC_TIMEOUT_SECONDS=30 → sync_timeout_seconds
	if err := k.Load(env.Provider("CHORUS_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "CHORUS_"))
	}), nil); err != nil {
		return nil, err
	}

	cfg := &Config{
		Library:            "default",
		SyncTimeoutSeconds: 3600,
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	for i, p := range cfg.SyncPaths {
		cfg.SyncPaths[i] = expandPath(p)
	}
	cfg.PluginDir = expandPath(cfg.PluginDir)

	return cfg, nil
}

// LibraryDir returns the per-library data directory.
func (c *Config) LibraryDir() (string, error) {
	dir := filepath.Join(xdg.DataHome, appName, c.Library)
	return dir, os.MkdirAll(dir, 0o755)
}

// PrefsDir returns the per-component preference file directory.
func (c *Config) PrefsDir() (string, error) {
	lib, err := c.LibraryDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(lib, "prefs"), nil
}

func configPaths() []string {
	paths := []string{}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appName, "config.toml"))
	}
	paths = append(paths, "config.toml")
	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
