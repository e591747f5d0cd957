package indexer

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Status is the indexer state machine position. Transitions are
// linear: Idle → Counting → Indexing → Removing → Cleanup →
// Optimizing → Analyzing → Idle.
type Status int

const (
	StatusIdle Status = iota
	StatusCountingFiles
	StatusIndexingFiles
	StatusRemovingMissing
	StatusCleanup
	StatusOptimizing
	StatusAnalyzingAudio
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusCountingFiles:
		return "CountingFiles"
	case StatusIndexingFiles:
		return "IndexingFiles"
	case StatusRemovingMissing:
		return "RemovingMissing"
	case StatusCleanup:
		return "Cleanup"
	case StatusOptimizing:
		return "Optimizing"
	case StatusAnalyzingAudio:
		return "AnalyzingAudio"
	default:
		return "Unknown"
	}
}

// progressString renders the human-readable scan progress line.
func progressString(status Status, overall, current, filesCounted int64) string {
	switch status {
	case StatusIdle:
		return ""
	case StatusCountingFiles:
		return fmt.Sprintf("Counting files: %s", humanize.Comma(filesCounted))
	case StatusIndexingFiles:
		if filesCounted > 0 {
			pct := float64(overall) / float64(filesCounted) * 100
			return fmt.Sprintf("Indexing: %s of %s (%.0f%%)",
				humanize.Comma(overall), humanize.Comma(filesCounted), pct)
		}
		return fmt.Sprintf("Indexing: %s files", humanize.Comma(overall))
	case StatusRemovingMissing:
		return "Removing missing files"
	case StatusCleanup:
		return "Cleaning up"
	case StatusOptimizing:
		return fmt.Sprintf("Optimizing: %s rows", humanize.Comma(current))
	case StatusAnalyzingAudio:
		if filesCounted > 0 {
			return fmt.Sprintf("Analyzing audio: %s of %s",
				humanize.Comma(overall), humanize.Comma(filesCounted))
		}
		return "Analyzing audio"
	}
	return ""
}
