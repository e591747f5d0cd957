// Package prefs stores per-component preferences as TOML files under
// the library's prefs directory, with typed default-on-missing access.
package prefs

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Store opens per-component preference files under one directory.
type Store struct {
	dir string

	mu     sync.Mutex
	opened map[string]*Prefs
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir, opened: make(map[string]*Prefs)}, nil
}

// Open returns the preferences for a component, loading its file when
// present. The same component always returns the same instance.
func (s *Store) Open(component string) (*Prefs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.opened[component]; ok {
		return p, nil
	}

	path := filepath.Join(s.dir, component+".toml")
	k := koanf.New(".")
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, err
		}
	}

	p := &Prefs{path: path, k: k}
	s.opened[component] = p
	return p, nil
}

// Prefs is typed access to one component's preference file. Values
// set in memory persist on Save.
type Prefs struct {
	mu   sync.Mutex
	path string
	k    *koanf.Koanf
}

// GetBool returns the value for key, or def when missing.
func (p *Prefs) GetBool(key string, def bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.k.Exists(key) {
		return def
	}
	return p.k.Bool(key)
}

// GetInt returns the value for key, or def when missing.
func (p *Prefs) GetInt(key string, def int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.k.Exists(key) {
		return def
	}
	return p.k.Int(key)
}

// GetFloat returns the value for key, or def when missing.
func (p *Prefs) GetFloat(key string, def float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.k.Exists(key) {
		return def
	}
	return p.k.Float64(key)
}

// GetString returns the value for key, or def when missing.
func (p *Prefs) GetString(key string, def string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.k.Exists(key) {
		return def
	}
	return p.k.String(key)
}

// SetBool stores a value in memory.
func (p *Prefs) SetBool(key string, v bool) { p.set(key, v) }

// SetInt stores a value in memory.
func (p *Prefs) SetInt(key string, v int) { p.set(key, v) }

// SetFloat stores a value in memory.
func (p *Prefs) SetFloat(key string, v float64) { p.set(key, v) }

// SetString stores a value in memory.
func (p *Prefs) SetString(key string, v string) { p.set(key, v) }

func (p *Prefs) set(key string, v any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.k.Set(key, v)
}

// Save writes the preference file back to disk.
func (p *Prefs) Save() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := p.k.Marshal(toml.Parser())
	if err != nil {
		return err
	}
	return os.WriteFile(p.path, data, 0o644)
}
