//go:build !linux

package plugin

import "log/slog"

// Shared-library discovery relies on Go's plugin package, which only
// supports a few platforms. Elsewhere only built-ins load.
func discoverShared(_ string, _ *slog.Logger) []Factory {
	return nil
}
