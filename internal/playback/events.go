package playback

import (
	"github.com/llehouerou/chorus/internal/track"
	"github.com/llehouerou/chorus/internal/transport"
)

// TrackChange is emitted when playback commits to a different track.
// It always precedes the prepare-next recomputation for the same
// transition.
type TrackChange struct {
	Index int
	Track *track.Record
}

// ModeChange is emitted when repeat or shuffle mode changes.
type ModeChange struct {
	RepeatMode RepeatMode
	Shuffled   bool
}

const eventBufferSize = 16

// Subscription provides event channels for one service observer.
type Subscription struct {
	TrackChanged  <-chan TrackChange
	ModeChanged   <-chan ModeChange
	Shuffled      <-chan bool
	State         <-chan transport.PlaybackState
	VolumeChanged <-chan float64
	TimeChanged   <-chan float64

	trackCh   chan TrackChange
	modeCh    chan ModeChange
	shuffleCh chan bool
	stateCh   chan transport.PlaybackState
	volumeCh  chan float64
	timeCh    chan float64
}

func newSubscription() *Subscription {
	s := &Subscription{
		trackCh:   make(chan TrackChange, eventBufferSize),
		modeCh:    make(chan ModeChange, eventBufferSize),
		shuffleCh: make(chan bool, eventBufferSize),
		stateCh:   make(chan transport.PlaybackState, eventBufferSize),
		volumeCh:  make(chan float64, eventBufferSize),
		timeCh:    make(chan float64, eventBufferSize),
	}
	s.TrackChanged = s.trackCh
	s.ModeChanged = s.modeCh
	s.Shuffled = s.shuffleCh
	s.State = s.stateCh
	s.VolumeChanged = s.volumeCh
	s.TimeChanged = s.timeCh
	return s
}

func (s *Subscription) sendTrack(e TrackChange) {
	select {
	case s.trackCh <- e:
	default:
	}
}

func (s *Subscription) sendMode(e ModeChange) {
	select {
	case s.modeCh <- e:
	default:
	}
}

func (s *Subscription) sendShuffled(on bool) {
	select {
	case s.shuffleCh <- on:
	default:
	}
}

func (s *Subscription) sendState(st transport.PlaybackState) {
	select {
	case s.stateCh <- st:
	default:
	}
}

func (s *Subscription) sendVolume(v float64) {
	select {
	case s.volumeCh <- v:
	default:
	}
}

func (s *Subscription) sendTime(sec float64) {
	select {
	case s.timeCh <- sec:
	default:
	}
}
