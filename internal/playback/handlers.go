package playback

import (
	"github.com/llehouerou/chorus/internal/tracklist"
	"github.com/llehouerou/chorus/internal/transport"
)

// Apart from Edit and Editor.Close, which any goroutine may call, the
// functions in this file run on the message loop goroutine.

func (s *Service) setIndex(index, nextIndex int) {
	s.stateMu.Lock()
	s.index = index
	s.nextIndex = nextIndex
	s.stateMu.Unlock()
}

// uriAt materializes the record at index and returns its uri, or "".
func (s *Service) uriAt(index int) string {
	rec := s.playlist.Get(index)
	if rec == nil {
		return ""
	}
	return rec.URI()
}

// playAt starts playback at index and schedules the prefetch
// recomputation.
func (s *Service) playAt(index int) {
	if index < 0 || index >= s.playlist.Count() {
		return
	}
	uri := s.uriAt(index)
	if uri == "" {
		return
	}

	s.setIndex(index, NoIndex)
	if err := s.tr.Start(uri); err != nil {
		s.log.Warn("start failed", "uri", uri, "err", err)
		s.setIndex(NoIndex, NoIndex)
		return
	}
	s.emitTrackChanged(index)
	s.post(message{kind: msgPrepareNext})
}

// prepareNext recomputes the prefetched next track and hands its uri
// to the transport:
//   - repeat Track keeps the current index;
//   - StartOver after an edit restarts from the head;
//   - otherwise the successor, wrapping only in repeat List;
//   - with nothing left, the pending slot clears and the transport
//     drains to Stopped.
func (s *Service) prepareNext() {
	count := s.playlist.Count()

	s.stateMu.Lock()
	index := s.index
	mode := s.repeatMode
	s.stateMu.Unlock()

	next := NoIndex
	switch {
	case mode == RepeatTrack && index >= 0:
		next = index
	case index == StartOver:
		if count > 0 {
			next = 0
		}
		s.setIndex(NoIndex, next)
		s.tr.PrepareNextTrack(s.uriAt(next))
		return
	case index >= 0 && index+1 < count:
		next = index + 1
	case mode == RepeatList && count > 0:
		next = 0
	}

	s.stateMu.Lock()
	s.nextIndex = next
	s.stateMu.Unlock()

	if next == NoIndex {
		s.tr.PrepareNextTrack("")
		return
	}
	s.tr.PrepareNextTrack(s.uriAt(next))
}

// handleStreamEvent reacts to transport stream lifecycle signals.
func (s *Service) handleStreamEvent(e transport.StreamEvent) {
	switch e.Kind {
	case transport.StreamPlaying:
		s.commitTransition(e.URI)
	case transport.StreamAlmostDone:
		// The pending player is already prepared; nothing to do here,
		// the transport performs the handoff itself.
	case transport.StreamError:
		// A failed track behaves as if it ended normally: let the
		// repeat/next rules decide what plays next.
		s.log.Warn("stream error", "uri", e.URI)
		s.post(message{kind: msgPrepareNext})
	case transport.StreamScheduled, transport.StreamPrepared,
		transport.StreamFinished, transport.StreamStopped:
		// informational
	}
}

// commitTransition moves index to nextIndex when the uri that started
// playing is the prefetched one. track_changed always precedes the
// prepare_next recomputation for the same transition.
func (s *Service) commitTransition(uri string) {
	s.stateMu.Lock()
	next := s.nextIndex
	s.stateMu.Unlock()

	if next == NoIndex {
		return
	}
	if s.uriAt(next) != uri {
		return
	}

	s.setIndex(next, NoIndex)
	s.emitTrackChanged(next)
	s.post(message{kind: msgPrepareNext})
}

// handlePlaybackEvent fans transport state out to subscribers and
// remotes. Draining to Stopped clears the playing index.
func (s *Service) handlePlaybackEvent(state transport.PlaybackState) {
	if state == transport.StateStopped {
		s.setIndex(NoIndex, NoIndex)
	}

	s.subsMu.RLock()
	for _, sub := range s.subs {
		sub.sendState(state)
	}
	s.subsMu.RUnlock()

	s.fanToRemotes(func(r remote) error {
		return r.OnPlaybackStateChanged(remoteState(state))
	})
}

func (s *Service) toggle() {
	switch s.tr.State() {
	case transport.StatePlaying:
		s.tr.Pause()
	case transport.StatePaused:
		s.tr.Resume()
	case transport.StateStopped, transport.StatePrepared:
		s.stateMu.Lock()
		index := s.index
		s.stateMu.Unlock()
		if index < 0 {
			index = 0
		}
		s.playAt(index)
	}
}

// next advances immediately (user-initiated skip).
func (s *Service) next() {
	count := s.playlist.Count()
	if count == 0 {
		return
	}

	s.stateMu.Lock()
	index := s.index
	mode := s.repeatMode
	s.stateMu.Unlock()

	switch {
	case index >= 0 && index+1 < count:
		s.playAt(index + 1)
	case mode == RepeatList:
		s.playAt(0)
	default:
		s.tr.Stop()
	}
}

// previous restarts the current track past the grace period, moves
// back one otherwise, wrapping to the tail in repeat List.
func (s *Service) previous() {
	if s.tr.Position() > PreviousGracePeriod.Seconds() {
		s.tr.SetPosition(0)
		return
	}

	s.stateMu.Lock()
	index := s.index
	mode := s.repeatMode
	s.stateMu.Unlock()

	count := s.playlist.Count()
	switch {
	case index > 0:
		s.playAt(index - 1)
	case mode == RepeatList && count > 0:
		s.playAt(count - 1)
	default:
		// At the head: restart.
		if index == 0 {
			s.tr.SetPosition(0)
		}
	}
}

func (s *Service) setRepeatMode(mode RepeatMode) {
	s.stateMu.Lock()
	changed := s.repeatMode != mode
	s.repeatMode = mode
	s.stateMu.Unlock()

	if !changed {
		return
	}
	s.emitMode()
	s.post(message{kind: msgPrepareNext})
}

// toggleShuffle shuffles in place, keeping the playing track's
// identity, or restores the unshuffled order. Toggling twice restores
// the playlist order exactly.
func (s *Service) toggleShuffle() {
	s.stateMu.Lock()
	index := s.index
	s.stateMu.Unlock()

	if s.unshuffled.Count() == 0 {
		// enable: remember the order, then shuffle in place
		s.unshuffled.CopyFrom(s.playlist)
		ed := s.playlist.Edit(index)
		ed.Shuffle()
		res := ed.Close()
		if index >= 0 {
			s.setIndex(res.PlayIndex, NoIndex)
		}
		s.emitShuffled(true)
	} else {
		var playingID int64
		if index >= 0 {
			playingID = s.playlist.GetID(index)
		}
		s.playlist.SwapWith(s.unshuffled)
		s.unshuffled.Clear()
		if playingID != 0 {
			s.setIndex(s.playlist.IndexOf(playingID), NoIndex)
		}
		s.emitShuffled(false)
	}

	s.emitMode()
	s.post(message{kind: msgPrepareNext})
}

// editorClosed applies an edit session's effect on the playing
// position and recomputes the prefetch when needed.
func (s *Service) editorClosed(res tracklist.Result) {
	if res.Moved {
		s.stateMu.Lock()
		s.index = res.PlayIndex
		s.stateMu.Unlock()
		s.post(message{kind: msgPrepareNext})
		return
	}
	if res.ReloadNext {
		s.post(message{kind: msgPrepareNext})
	}
}

// Editor wraps the playlist editor so Close routes its result through
// the message queue.
type Editor struct {
	*tracklist.Editor
	svc *Service
}

// Edit locks the playlist for mutation. Close releases the lock and
// posts the recompute message.
func (s *Service) Edit() *Editor {
	s.stateMu.Lock()
	index := s.index
	s.stateMu.Unlock()
	return &Editor{Editor: s.playlist.Edit(index), svc: s}
}

// Close releases the playlist lock; the edit's effects become visible
// atomically.
func (e *Editor) Close() {
	res := e.Editor.Close()
	e.svc.post(message{kind: msgEditorClosed, editResult: res})
}
