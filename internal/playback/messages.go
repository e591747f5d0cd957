package playback

import (
	"github.com/llehouerou/chorus/internal/tracklist"
	"github.com/llehouerou/chorus/internal/transport"
)

// msgKind tags messages on the service's queue. All state mutation of
// index, nextIndex, repeatMode, and the playlists happens on the loop
// goroutine that consumes these.
type msgKind int

const (
	msgStreamEvent msgKind = iota
	msgPlaybackEvent
	msgPrepareNext
	msgVolumeChanged
	msgTimeChanged
	msgModeChanged
	msgPlayAt
	msgStop
	msgPause
	msgResume
	msgToggle
	msgNext
	msgPrevious
	msgSetRepeat
	msgToggleShuffle
	msgEditorClosed
	msgSeekTo
)

type message struct {
	kind msgKind

	stream     transport.StreamEvent
	state      transport.PlaybackState
	volume     float64
	seconds    float64
	index      int
	repeatMode RepeatMode
	editResult tracklist.Result
}

// post enqueues a message for the loop goroutine. Posting after Close
// is a no-op.
func (s *Service) post(m message) {
	select {
	case s.msgs <- m:
	case <-s.done:
	}
}
