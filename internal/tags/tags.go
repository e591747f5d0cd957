// Package tags is the built-in metadata reader: it extracts tag
// metadata and audio stream properties from local music files for the
// indexer.
package tags

import (
	"strconv"
	"strings"
	"time"
)

// File extensions handled by the built-in reader.
const (
	ExtMP3  = ".mp3"
	ExtFLAC = ".flac"
	ExtOPUS = ".opus"
	ExtOGG  = ".ogg"
	ExtOGA  = ".oga"
	ExtM4A  = ".m4a"
	ExtMP4  = ".mp4"
	ExtWAV  = ".wav"
)

// Tag contains the tag metadata read from one file.
type Tag struct {
	Path        string
	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	Genre       string

	TrackNumber int
	TotalTracks int
	DiscNumber  int
	TotalDiscs  int

	Date         string // YYYY-MM-DD, YYYY-MM, or YYYY
	OriginalDate string

	Label         string
	CatalogNumber string
	ISRC          string
	BPM           float64

	CoverArt []byte
}

// Year derives the year from the Date field.
// Returns 0 if Date is empty or cannot be parsed.
func (t *Tag) Year() int {
	if t.Date == "" {
		return 0
	}
	year := t.Date
	if len(year) > 4 {
		year = year[:4]
	}
	y, _ := strconv.Atoi(year)
	return y
}

// AudioInfo contains audio stream properties (not tags).
type AudioInfo struct {
	Duration   time.Duration
	Format     string
	SampleRate int
	BitDepth   int
}

// IsMusicFile returns true if the path has a supported extension.
func IsMusicFile(path string) bool {
	return CanRead(extOf(path))
}

// CanRead reports whether the built-in reader handles the extension.
func CanRead(ext string) bool {
	switch strings.ToLower(ext) {
	case ExtMP3, ExtFLAC, ExtOPUS, ExtOGG, ExtOGA, ExtM4A, ExtMP4, ExtWAV:
		return true
	}
	return false
}

func extOf(path string) string {
	if idx := strings.LastIndex(path, "."); idx >= 0 {
		return strings.ToLower(path[idx:])
	}
	return ""
}

// taglibTags wraps a taglib result map with helper methods.
type taglibTags map[string][]string

// get returns the first value for any of the given keys, or empty
// string if not found.
func (t taglibTags) get(keys ...string) string {
	for _, key := range keys {
		if values, ok := t[key]; ok && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// getInt returns the first value as an integer, or 0 if not found or
// invalid.
func (t taglibTags) getInt(key string) int {
	if values, ok := t[key]; ok && len(values) > 0 {
		if n, err := strconv.Atoi(values[0]); err == nil {
			return n
		}
	}
	return 0
}

// parseNumberPair parses a track or disc number that may be "N" or
// "N/M" format.
func parseNumberPair(s string) (num, total int) {
	if s == "" {
		return 0, 0
	}
	parts := strings.SplitN(s, "/", 2)
	num, _ = strconv.Atoi(strings.TrimSpace(parts[0]))
	if len(parts) == 2 {
		total, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
	}
	return num, total
}
