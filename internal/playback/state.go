package playback

import (
	"time"

	"github.com/llehouerou/chorus/internal/tracklist"
)

// Index sentinels.
const (
	// NoIndex means nothing is playing.
	NoIndex = tracklist.NoIndex
	// StartOver means the playing item was deleted out from under us;
	// the next advance restarts from the head of the playlist.
	StartOver = tracklist.StartOver
)

// PreviousGracePeriod is how far into a track Previous restarts it
// instead of moving back.
const PreviousGracePeriod = 2 * time.Second

// RepeatMode defines the repeat behavior.
type RepeatMode int

const (
	RepeatNone RepeatMode = iota
	RepeatTrack
	RepeatList
)

// String returns the repeat mode name.
func (m RepeatMode) String() string {
	switch m {
	case RepeatNone:
		return "None"
	case RepeatTrack:
		return "Track"
	case RepeatList:
		return "List"
	default:
		return "Unknown"
	}
}

// CycleRepeatMode returns the next mode in the None → List → Track
// cycle.
func CycleRepeatMode(m RepeatMode) RepeatMode {
	switch m {
	case RepeatNone:
		return RepeatList
	case RepeatList:
		return RepeatTrack
	default:
		return RepeatNone
	}
}
