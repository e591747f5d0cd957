//go:build linux

package plugin

import (
	"log/slog"
	"os"
	"path/filepath"
	goplugin "plugin"
	"strings"
)

// discoverShared enumerates dir for shared libraries exporting a
// ChorusPlugin symbol of type Factory. Libraries that fail to open or
// export the wrong type are logged and skipped.
func discoverShared(dir string, log *slog.Logger) []Factory {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if log != nil {
			log.Warn("plugin directory unreadable, skipping discovery", "dir", dir, "err", err)
		}
		return nil
	}

	var factories []Factory
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".so") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		p, err := goplugin.Open(path)
		if err != nil {
			if log != nil {
				log.Warn("plugin failed to load, skipping", "path", path, "err", err)
			}
			continue
		}
		sym, err := p.Lookup("ChorusPlugin")
		if err != nil {
			if log != nil {
				log.Warn("plugin missing ChorusPlugin export, skipping", "path", path)
			}
			continue
		}
		f, ok := sym.(*Factory)
		if !ok {
			if log != nil {
				log.Warn("plugin ChorusPlugin export has wrong type, skipping", "path", path)
			}
			continue
		}
		factories = append(factories, *f)
	}
	return factories
}
