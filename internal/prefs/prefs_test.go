package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPrefs_DefaultsOnMissing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	p, err := store.Open("playback")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if got := p.GetBool("missing", true); !got {
		t.Error("expected bool default")
	}
	if got := p.GetInt("missing", 7); got != 7 {
		t.Errorf("expected int default, got %d", got)
	}
	if got := p.GetFloat("missing", 0.5); got != 0.5 {
		t.Errorf("expected float default, got %v", got)
	}
	if got := p.GetString("missing", "x"); got != "x" {
		t.Errorf("expected string default, got %q", got)
	}
}

func TestPrefs_SaveAndReload(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewStore(dir)
	p, _ := store.Open("playback")

	p.SetFloat("volume", 0.8)
	p.SetInt("repeat_mode", 2)
	p.SetString("output", "speaker")
	p.SetBool("crossfade", true)
	if err := p.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "playback.toml")); err != nil {
		t.Fatalf("preference file missing: %v", err)
	}

	// a fresh store reads the file back
	store2, _ := NewStore(dir)
	p2, err := store2.Open("playback")
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if got := p2.GetFloat("volume", 0); got != 0.8 {
		t.Errorf("volume = %v, expected 0.8", got)
	}
	if got := p2.GetInt("repeat_mode", 0); got != 2 {
		t.Errorf("repeat_mode = %d, expected 2", got)
	}
	if got := p2.GetString("output", ""); got != "speaker" {
		t.Errorf("output = %q, expected speaker", got)
	}
	if !p2.GetBool("crossfade", false) {
		t.Error("crossfade should persist")
	}
}

func TestStore_SameComponentSameInstance(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	p1, _ := store.Open("indexer")
	p2, _ := store.Open("indexer")
	if p1 != p2 {
		t.Error("expected the same Prefs instance per component")
	}
}
