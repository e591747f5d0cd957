//go:build linux

// Package mpris is the built-in playback remote publishing the engine
// over D-Bus as an MPRIS media player.
package mpris

import (
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/chorus/internal/plugin"
)

// Remote bridges the playback service to MPRIS. Event callbacks
// update a cached snapshot the D-Bus adapters serve.
type Remote struct {
	mu    sync.Mutex
	srv   *server.Server
	ctl   plugin.ServiceControls
	track *plugin.RemoteTrack
	state plugin.RemoteState
	mode  int
	shuf  bool
	vol   float64
}

var (
	_ plugin.PlaybackRemote = (*Remote)(nil)
	_ plugin.ServiceBinder  = (*Remote)(nil)
)

// NewRemote creates the MPRIS remote. The D-Bus server starts when
// the service binds.
func NewRemote() *Remote {
	return &Remote{vol: 1.0}
}

// Name identifies the remote.
func (r *Remote) Name() string { return "mpris" }

// BindService receives the control surface and starts serving.
func (r *Remote) BindService(ctl plugin.ServiceControls) {
	r.mu.Lock()
	r.ctl = ctl
	r.srv = server.NewServer("chorus", &rootAdapter{}, &playerAdapter{remote: r})
	srv := r.srv
	r.mu.Unlock()

	go func() {
		_ = srv.Listen()
	}()
}

// OnTrackChanged caches the new track snapshot.
func (r *Remote) OnTrackChanged(_ int, track *plugin.RemoteTrack) error {
	r.mu.Lock()
	r.track = track
	r.mu.Unlock()
	return nil
}

// OnPlaybackStateChanged caches the new state.
func (r *Remote) OnPlaybackStateChanged(state plugin.RemoteState) error {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
	return nil
}

// OnVolumeChanged caches the new volume.
func (r *Remote) OnVolumeChanged(v float64) error {
	r.mu.Lock()
	r.vol = v
	r.mu.Unlock()
	return nil
}

// OnModeChanged caches repeat and shuffle.
func (r *Remote) OnModeChanged(repeatMode int, shuffled bool) error {
	r.mu.Lock()
	r.mode = repeatMode
	r.shuf = shuffled
	r.mu.Unlock()
	return nil
}

// Close stops the D-Bus server.
func (r *Remote) Close() error {
	r.mu.Lock()
	srv := r.srv
	r.srv = nil
	r.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Stop()
}

func (r *Remote) snapshot() (plugin.ServiceControls, *plugin.RemoteTrack, plugin.RemoteState, int, bool, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ctl, r.track, r.state, r.mode, r.shuf, r.vol
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (rootAdapter) Raise() error { return nil }
func (rootAdapter) Quit() error  { return nil }

func (rootAdapter) CanQuit() (bool, error)      { return false, nil }
func (rootAdapter) CanRaise() (bool, error)     { return false, nil }
func (rootAdapter) HasTrackList() (bool, error) { return false, nil }

func (rootAdapter) Identity() (string, error) { return "Chorus", nil }

//nolint:revive // Method name required by interface.
func (rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file", "http", "https"}, nil
}

func (rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/ogg", "audio/wav"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter and the
// optional loop/shuffle interfaces.
type playerAdapter struct {
	remote *Remote
}

func (p *playerAdapter) Next() error {
	if ctl, _, _, _, _, _ := p.remote.snapshot(); ctl != nil {
		ctl.Next()
	}
	return nil
}

func (p *playerAdapter) Previous() error {
	if ctl, _, _, _, _, _ := p.remote.snapshot(); ctl != nil {
		ctl.Previous()
	}
	return nil
}

func (p *playerAdapter) Pause() error {
	if ctl, _, _, _, _, _ := p.remote.snapshot(); ctl != nil {
		ctl.Pause()
	}
	return nil
}

func (p *playerAdapter) PlayPause() error {
	if ctl, _, _, _, _, _ := p.remote.snapshot(); ctl != nil {
		ctl.PlayPause()
	}
	return nil
}

func (p *playerAdapter) Stop() error {
	if ctl, _, _, _, _, _ := p.remote.snapshot(); ctl != nil {
		ctl.Stop()
	}
	return nil
}

func (p *playerAdapter) Play() error {
	if ctl, _, _, _, _, _ := p.remote.snapshot(); ctl != nil {
		ctl.Play()
	}
	return nil
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	ctl, _, _, _, _, _ := p.remote.snapshot()
	if ctl != nil {
		ctl.SeekTo(ctl.Position() + float64(offset)/1e6)
	}
	return nil
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	if ctl, _, _, _, _, _ := p.remote.snapshot(); ctl != nil {
		ctl.SeekTo(float64(position) / 1e6)
	}
	return nil
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error { return nil }

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	_, _, state, _, _, _ := p.remote.snapshot()
	switch state {
	case plugin.RemotePlaying:
		return types.PlaybackStatusPlaying, nil
	case plugin.RemotePaused:
		return types.PlaybackStatusPaused, nil
	default:
		return types.PlaybackStatusStopped, nil
	}
}

func (p *playerAdapter) Rate() (float64, error)    { return 1.0, nil }
func (p *playerAdapter) SetRate(_ float64) error   { return nil }
func (p *playerAdapter) MinimumRate() (float64, error) { return 1.0, nil }
func (p *playerAdapter) MaximumRate() (float64, error) { return 1.0, nil }

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	_, track, _, _, _, _ := p.remote.snapshot()
	if track == nil {
		return types.Metadata{}, nil
	}
	return types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(track.URI)),
		Length:  types.Microseconds(track.Duration.Microseconds()),
		Title:   track.Title,
		Artist:  []string{track.Artist},
		Album:   track.Album,
	}, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	_, _, _, _, _, vol := p.remote.snapshot()
	return vol, nil
}

func (p *playerAdapter) SetVolume(v float64) error {
	if ctl, _, _, _, _, _ := p.remote.snapshot(); ctl != nil {
		ctl.SetVolume(v)
	}
	return nil
}

func (p *playerAdapter) Position() (int64, error) {
	ctl, _, _, _, _, _ := p.remote.snapshot()
	if ctl == nil {
		return 0, nil
	}
	return int64(ctl.Position() * 1e6), nil
}

func (p *playerAdapter) CanGoNext() (bool, error)     { return true, nil }
func (p *playerAdapter) CanGoPrevious() (bool, error) { return true, nil }
func (p *playerAdapter) CanPlay() (bool, error)       { return true, nil }
func (p *playerAdapter) CanPause() (bool, error)      { return true, nil }
func (p *playerAdapter) CanSeek() (bool, error)       { return true, nil }
func (p *playerAdapter) CanControl() (bool, error)    { return true, nil }

func formatTrackID(uri string) string {
	h := fnv.New64a()
	h.Write([]byte(uri))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}

func init() {
	plugin.Register(func(plugin.Environment) ([]plugin.Capability, error) {
		return []plugin.Capability{{
			Info: plugin.Info{
				Name:       "mpris",
				Version:    "1.0",
				Author:     "chorus",
				GUID:       "builtin-mpris-remote",
				SDKVersion: plugin.SDKVersion,
			},
			Remote: NewRemote(),
		}}, nil
	})
}
