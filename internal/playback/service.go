// Package playback is the cooperative supervisor over the transport
// and the playing queue: it owns the now-playing index, repeat and
// shuffle modes, next-track prefetch, and remote-control fan-out.
package playback

import (
	"log/slog"
	"sync"

	"github.com/llehouerou/chorus/internal/catalog"
	"github.com/llehouerou/chorus/internal/plugin"
	"github.com/llehouerou/chorus/internal/prefs"
	"github.com/llehouerou/chorus/internal/tracklist"
	"github.com/llehouerou/chorus/internal/transport"
)

// Preference keys persisted across sessions.
const (
	prefsComponent = "playback"
	prefKeyVolume  = "volume"
	prefKeyRepeat  = "repeat_mode"
)

// Service is single-threaded cooperative over a message queue. Public
// methods may be called from any goroutine: they post messages, or
// take a short lock on the playlist for reads.
type Service struct {
	cat  *catalog.Catalog
	host *plugin.Host
	tr   *transport.Transport
	pref *prefs.Prefs
	log  *slog.Logger

	msgs chan message
	done chan struct{}
	wg   sync.WaitGroup

	// Loop-owned state. Read access from other goroutines goes through
	// stateMu snapshots.
	stateMu    sync.Mutex
	playlist   *tracklist.List
	unshuffled *tracklist.List
	index      int
	nextIndex  int
	repeatMode RepeatMode

	remotes       []plugin.PlaybackRemote
	failedRemotes map[plugin.PlaybackRemote]bool

	subsMu sync.RWMutex
	subs   []*Subscription
}

// New creates the service and starts its message loop. Volume and
// repeat mode restore from the preference store.
func New(cat *catalog.Catalog, host *plugin.Host, tr *transport.Transport, store *prefs.Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	var pref *prefs.Prefs
	if store != nil {
		if p, err := store.Open(prefsComponent); err == nil {
			pref = p
		}
	}

	s := &Service{
		cat:           cat,
		host:          host,
		tr:            tr,
		pref:          pref,
		log:           log.With("component", "playback"),
		msgs:          make(chan message, 64),
		done:          make(chan struct{}),
		playlist:      tracklist.New(cat),
		unshuffled:    tracklist.New(cat),
		index:         NoIndex,
		nextIndex:     NoIndex,
		remotes:       host.Remotes(),
		failedRemotes: make(map[plugin.PlaybackRemote]bool),
	}

	if pref != nil {
		s.repeatMode = RepeatMode(pref.GetInt(prefKeyRepeat, int(RepeatNone)))
		tr.SetVolume(pref.GetFloat(prefKeyVolume, 1.0))
	}
	s.bindRemotes()

	s.wg.Add(1)
	go s.run()
	return s
}

// Close stops the message loop and persists volume and repeat mode.
func (s *Service) Close() error {
	select {
	case <-s.done:
		return nil
	default:
	}
	close(s.done)
	s.wg.Wait()

	if s.pref != nil {
		s.pref.SetFloat(prefKeyVolume, s.tr.Volume())
		s.pref.SetInt(prefKeyRepeat, int(s.repeatMode))
		if err := s.pref.Save(); err != nil {
			s.log.Warn("preference save failed", "err", err)
		}
	}

	s.subsMu.Lock()
	s.subs = nil
	s.subsMu.Unlock()
	return nil
}

// run is the message loop: it consumes posted messages and re-posts
// transport signals so every mutation happens on this goroutine.
func (s *Service) run() {
	defer s.wg.Done()
	sub := s.tr.Subscribe()

	for {
		select {
		case <-s.done:
			return
		case m := <-s.msgs:
			s.handle(m)
		case e := <-sub.Stream:
			s.handle(message{kind: msgStreamEvent, stream: e})
		case st := <-sub.Playback:
			s.handle(message{kind: msgPlaybackEvent, state: st})
		case v := <-sub.VolumeChanged:
			s.handle(message{kind: msgVolumeChanged, volume: v})
		case sec := <-sub.TimeChanged:
			s.handle(message{kind: msgTimeChanged, seconds: sec})
		}
	}
}

func (s *Service) handle(m message) {
	switch m.kind {
	case msgStreamEvent:
		s.handleStreamEvent(m.stream)
	case msgPlaybackEvent:
		s.handlePlaybackEvent(m.state)
	case msgPrepareNext:
		s.prepareNext()
	case msgVolumeChanged:
		s.emitVolume(m.volume)
	case msgTimeChanged:
		s.emitTime(m.seconds)
	case msgModeChanged:
		s.emitMode()
	case msgPlayAt:
		s.playAt(m.index)
	case msgStop:
		s.tr.Stop()
		s.setIndex(NoIndex, NoIndex)
	case msgPause:
		s.tr.Pause()
	case msgResume:
		s.tr.Resume()
	case msgToggle:
		s.toggle()
	case msgNext:
		s.next()
	case msgPrevious:
		s.previous()
	case msgSetRepeat:
		s.setRepeatMode(m.repeatMode)
	case msgToggleShuffle:
		s.toggleShuffle()
	case msgEditorClosed:
		s.editorClosed(m.editResult)
	case msgSeekTo:
		s.tr.SetPosition(m.seconds)
	}
}

// --- public surface (any goroutine) ---

// Play starts playback at the given playlist index.
func (s *Service) Play(index int) {
	s.post(message{kind: msgPlayAt, index: index})
}

// Stop halts playback.
func (s *Service) Stop() { s.post(message{kind: msgStop}) }

// Pause suspends playback.
func (s *Service) Pause() { s.post(message{kind: msgPause}) }

// Resume continues paused playback.
func (s *Service) Resume() { s.post(message{kind: msgResume}) }

// Toggle flips between playing and paused, starting the current track
// when stopped.
func (s *Service) Toggle() { s.post(message{kind: msgToggle}) }

// Next advances to the next track per the repeat mode.
func (s *Service) Next() { s.post(message{kind: msgNext}) }

// Previous restarts the current track when more than the grace period
// has played, otherwise moves back.
func (s *Service) Previous() { s.post(message{kind: msgPrevious}) }

// SeekTo seeks the current track to an absolute position in seconds.
func (s *Service) SeekTo(seconds float64) {
	s.post(message{kind: msgSeekTo, seconds: seconds})
}

// SetRepeatMode sets the repeat behavior.
func (s *Service) SetRepeatMode(mode RepeatMode) {
	s.post(message{kind: msgSetRepeat, repeatMode: mode})
}

// ToggleShuffle flips shuffle on or off.
func (s *Service) ToggleShuffle() { s.post(message{kind: msgToggleShuffle}) }

// SetVolume forwards to the transport; the change fans back through
// the message loop.
func (s *Service) SetVolume(v float64) { s.tr.SetVolume(v) }

// SetMuted forwards to the transport.
func (s *Service) SetMuted(m bool) { s.tr.SetMuted(m) }

// Volume returns the transport volume.
func (s *Service) Volume() float64 { return s.tr.Volume() }

// Position returns the transport position in seconds.
func (s *Service) Position() float64 { return s.tr.Position() }

// Duration returns the current track duration in seconds.
func (s *Service) Duration() float64 { return s.tr.Duration() }

// State returns the transport playback state.
func (s *Service) State() transport.PlaybackState { return s.tr.State() }

// Index returns the now-playing index, or NoIndex.
func (s *Service) Index() int {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.index
}

// RepeatMode returns the repeat behavior.
func (s *Service) RepeatMode() RepeatMode {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.repeatMode
}

// IsShuffled reports whether the playlist is currently shuffled.
func (s *Service) IsShuffled() bool {
	return s.unshuffled.Count() > 0
}

// Playlist exposes the playing queue for reads.
func (s *Service) Playlist() *tracklist.List { return s.playlist }

// Subscribe creates a new event subscription.
func (s *Service) Subscribe() *Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	sub := newSubscription()
	s.subs = append(s.subs, sub)
	return sub
}
