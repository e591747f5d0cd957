package playback

import (
	"github.com/llehouerou/chorus/internal/plugin"
)

// prefsSchema declares the playback component's preference keys for
// the settings surface.
type prefsSchema struct{}

var _ plugin.Schema = prefsSchema{}

func (prefsSchema) Component() string { return prefsComponent }

func (prefsSchema) Entries() []plugin.SchemaEntry {
	return []plugin.SchemaEntry{
		{Key: prefKeyVolume, Type: "double", Default: 1.0},
		{Key: prefKeyRepeat, Type: "int", Default: int(RepeatNone)},
	}
}

func init() {
	plugin.Register(func(plugin.Environment) ([]plugin.Capability, error) {
		return []plugin.Capability{{
			Info: plugin.Info{
				Name:       "playback-schema",
				Version:    "1.0",
				Author:     "chorus",
				GUID:       "builtin-playback-schema",
				SDKVersion: plugin.SDKVersion,
			},
			Schema: prefsSchema{},
		}}, nil
	})
}
