package playback

import (
	"time"

	"github.com/llehouerou/chorus/internal/plugin"
	"github.com/llehouerou/chorus/internal/track"
	"github.com/llehouerou/chorus/internal/transport"
)

type remote = plugin.PlaybackRemote

// controls adapts the service to the control surface remotes drive.
type controls struct{ svc *Service }

var _ plugin.ServiceControls = controls{}

func (c controls) Play()              { c.svc.Toggle() }
func (c controls) Pause()             { c.svc.Pause() }
func (c controls) PlayPause()         { c.svc.Toggle() }
func (c controls) Stop()              { c.svc.Stop() }
func (c controls) Next()              { c.svc.Next() }
func (c controls) Previous()          { c.svc.Previous() }
func (c controls) SetVolume(v float64) { c.svc.SetVolume(v) }
func (c controls) Volume() float64    { return c.svc.Volume() }
func (c controls) Position() float64  { return c.svc.Position() }
func (c controls) SeekTo(sec float64) { c.svc.SeekTo(sec) }

// bindRemotes hands the control surface to remotes that want it.
func (s *Service) bindRemotes() {
	for _, r := range s.remotes {
		if b, ok := r.(plugin.ServiceBinder); ok {
			b.BindService(controls{svc: s})
		}
	}
}

// fanToRemotes forwards one event to every active remote. A remote
// returning an error is marked failed and dropped on the next reload.
func (s *Service) fanToRemotes(fn func(remote) error) {
	dropped := false
	for _, r := range s.remotes {
		if s.failedRemotes[r] {
			continue
		}
		if err := fn(r); err != nil {
			s.log.Warn("playback remote failed, dropping", "remote", r.Name(), "err", err)
			s.failedRemotes[r] = true
			dropped = true
		}
	}
	if dropped {
		s.reloadRemotes()
	}
}

// reloadRemotes rebuilds the active remote list without the failures.
func (s *Service) reloadRemotes() {
	kept := s.remotes[:0]
	for _, r := range s.remotes {
		if !s.failedRemotes[r] {
			kept = append(kept, r)
		}
	}
	s.remotes = kept
}

func remoteState(st transport.PlaybackState) plugin.RemoteState {
	switch st {
	case transport.StatePlaying:
		return plugin.RemotePlaying
	case transport.StatePaused:
		return plugin.RemotePaused
	case transport.StatePrepared:
		return plugin.RemotePrepared
	default:
		return plugin.RemoteStopped
	}
}

func remoteTrack(rec *track.Record) *plugin.RemoteTrack {
	if rec == nil {
		return nil
	}
	return &plugin.RemoteTrack{
		ID:       rec.ID(),
		URI:      rec.URI(),
		Title:    rec.Get(track.KeyTitle),
		Artist:   rec.Get(track.KeyArtist),
		Album:    rec.Get(track.KeyAlbum),
		Duration: time.Duration(rec.GetInt64(track.KeyDuration, 0)) * time.Second,
	}
}

// --- event emission (loop goroutine) ---

func (s *Service) emitTrackChanged(index int) {
	rec := s.playlist.Get(index)

	s.subsMu.RLock()
	for _, sub := range s.subs {
		sub.sendTrack(TrackChange{Index: index, Track: rec})
	}
	s.subsMu.RUnlock()

	rt := remoteTrack(rec)
	s.fanToRemotes(func(r remote) error {
		return r.OnTrackChanged(index, rt)
	})
}

func (s *Service) emitMode() {
	s.stateMu.Lock()
	mode := s.repeatMode
	s.stateMu.Unlock()
	shuffled := s.IsShuffled()

	s.subsMu.RLock()
	for _, sub := range s.subs {
		sub.sendMode(ModeChange{RepeatMode: mode, Shuffled: shuffled})
	}
	s.subsMu.RUnlock()

	s.fanToRemotes(func(r remote) error {
		return r.OnModeChanged(int(mode), shuffled)
	})
}

func (s *Service) emitShuffled(on bool) {
	s.subsMu.RLock()
	for _, sub := range s.subs {
		sub.sendShuffled(on)
	}
	s.subsMu.RUnlock()
}

func (s *Service) emitVolume(v float64) {
	s.subsMu.RLock()
	for _, sub := range s.subs {
		sub.sendVolume(v)
	}
	s.subsMu.RUnlock()

	s.fanToRemotes(func(r remote) error {
		return r.OnVolumeChanged(v)
	})
}

func (s *Service) emitTime(sec float64) {
	s.subsMu.RLock()
	for _, sub := range s.subs {
		sub.sendTime(sec)
	}
	s.subsMu.RUnlock()
}
