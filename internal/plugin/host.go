package plugin

import (
	"fmt"
	"sync"
)

// Capability is one typed handle contributed by a plugin.
type Capability struct {
	Info Info

	Reader        MetadataReader
	DecoderFac    DecoderFactory
	StreamFac     DataStreamFactory
	Output        Output
	DSP           DSP
	Remote        PlaybackRemote
	IndexerSource IndexerSource
	Analyzer      AudioAnalyzer
	Encoder       Encoder
	Schema        Schema
}

// Factory builds a plugin's capabilities against the host environment.
// A factory that returns an error (or panics) is dropped from the
// active list without aborting the host.
type Factory func(env Environment) ([]Capability, error)

var (
	builtinMu sync.Mutex
	builtins  []Factory
)

// Register adds a built-in plugin factory. Called from package init
// functions of in-tree plugins.
func Register(f Factory) {
	builtinMu.Lock()
	defer builtinMu.Unlock()
	builtins = append(builtins, f)
}

// Host owns the loaded plugin set and hands out typed collections.
// Plugins loaded at startup remain resident until Close.
type Host struct {
	env Environment

	mu   sync.RWMutex
	caps []Capability
}

// NewHost loads built-in plugins and discovers shared libraries in
// dir (empty dir skips discovery). A plugin that fails to load is
// logged and skipped.
func NewHost(dir string, env Environment) *Host {
	h := &Host{env: env}

	builtinMu.Lock()
	factories := make([]Factory, len(builtins))
	copy(factories, builtins)
	builtinMu.Unlock()

	for _, f := range factories {
		h.load(f)
	}

	if dir != "" {
		for _, f := range discoverShared(dir, env.Log) {
			h.load(f)
		}
	}

	return h
}

// NewHostWith loads only the given factories, skipping the built-in
// registry and shared-library discovery. Used by embedders and tests
// that need a fixed capability set.
func NewHostWith(env Environment, factories ...Factory) *Host {
	h := &Host{env: env}
	for _, f := range factories {
		h.load(f)
	}
	return h
}

// load invokes one factory, recovering panics so a misbehaving plugin
// cannot take the host down.
func (h *Host) load(f Factory) {
	defer func() {
		if r := recover(); r != nil {
			if h.env.Log != nil {
				h.env.Log.Warn("plugin factory panicked, dropping", "panic", fmt.Sprint(r))
			}
		}
	}()

	caps, err := f(h.env)
	if err != nil {
		if h.env.Log != nil {
			h.env.Log.Warn("plugin factory failed, dropping", "err", err)
		}
		return
	}
	for _, c := range caps {
		if c.Info.SDKVersion != 0 && c.Info.SDKVersion != SDKVersion {
			if h.env.Log != nil {
				h.env.Log.Warn("plugin sdk version mismatch, skipping",
					"plugin", c.Info.Name, "sdk", c.Info.SDKVersion)
			}
			continue
		}
		h.mu.Lock()
		h.caps = append(h.caps, c)
		h.mu.Unlock()
	}
}

// Evict removes every capability of the named plugin from the active
// list. Used when a plugin misbehaves at call time.
func (h *Host) Evict(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	kept := h.caps[:0]
	for _, c := range h.caps {
		if c.Info.Name != name {
			kept = append(kept, c)
		}
	}
	h.caps = kept
}

// Plugins returns the identity of every loaded plugin, deduplicated.
func (h *Host) Plugins() []Info {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[string]bool)
	var infos []Info
	for _, c := range h.caps {
		if !seen[c.Info.GUID] {
			seen[c.Info.GUID] = true
			infos = append(infos, c.Info)
		}
	}
	return infos
}

// Readers returns the loaded metadata readers in load order.
func (h *Host) Readers() []MetadataReader {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []MetadataReader
	for _, c := range h.caps {
		if c.Reader != nil {
			out = append(out, c.Reader)
		}
	}
	return out
}

// DecoderFactories returns the loaded decoder factories in load order.
func (h *Host) DecoderFactories() []DecoderFactory {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []DecoderFactory
	for _, c := range h.caps {
		if c.DecoderFac != nil {
			out = append(out, c.DecoderFac)
		}
	}
	return out
}

// StreamFactories returns the loaded data stream factories.
func (h *Host) StreamFactories() []DataStreamFactory {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []DataStreamFactory
	for _, c := range h.caps {
		if c.StreamFac != nil {
			out = append(out, c.StreamFac)
		}
	}
	return out
}

// Outputs returns the loaded audio outputs.
func (h *Host) Outputs() []Output {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []Output
	for _, c := range h.caps {
		if c.Output != nil {
			out = append(out, c.Output)
		}
	}
	return out
}

// DSPs returns the loaded DSP chain in load order.
func (h *Host) DSPs() []DSP {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []DSP
	for _, c := range h.caps {
		if c.DSP != nil {
			out = append(out, c.DSP)
		}
	}
	return out
}

// Remotes returns the loaded playback remotes.
func (h *Host) Remotes() []PlaybackRemote {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []PlaybackRemote
	for _, c := range h.caps {
		if c.Remote != nil {
			out = append(out, c.Remote)
		}
	}
	return out
}

// Sources returns the loaded indexer sources.
func (h *Host) Sources() []IndexerSource {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []IndexerSource
	for _, c := range h.caps {
		if c.IndexerSource != nil {
			out = append(out, c.IndexerSource)
		}
	}
	return out
}

// Analyzers returns the loaded audio analyzers.
func (h *Host) Analyzers() []AudioAnalyzer {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []AudioAnalyzer
	for _, c := range h.caps {
		if c.Analyzer != nil {
			out = append(out, c.Analyzer)
		}
	}
	return out
}

// Encoders returns the loaded encoders.
func (h *Host) Encoders() []Encoder {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []Encoder
	for _, c := range h.caps {
		if c.Encoder != nil {
			out = append(out, c.Encoder)
		}
	}
	return out
}

// Schemas returns the loaded preference schemas.
func (h *Host) Schemas() []Schema {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []Schema
	for _, c := range h.caps {
		if c.Schema != nil {
			out = append(out, c.Schema)
		}
	}
	return out
}

// Close releases plugin-held resources (remotes, outputs).
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	var firstErr error
	for _, c := range h.caps {
		if c.Remote != nil {
			if err := c.Remote.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if c.Output != nil {
			if err := c.Output.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	h.caps = nil
	return firstErr
}
