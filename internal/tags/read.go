package tags

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/dhowden/tag"
)

// Read reads tag metadata from a music file.
// It returns only tag metadata, not audio stream properties.
func Read(path string) (*Tag, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		switch extOf(path) {
		case ExtMP3:
			// dhowden/tag has issues with some UTF-16 encoded ID3 tags
			return readMP3WithID3v2Fallback(path)
		case ExtFLAC:
			// dhowden/tag can fail on some FLAC files
			return readFLACWithTaglib(path)
		default:
			// generic taglib fallback for the remaining containers
			return readWithTaglib(path)
		}
	}

	title := m.Title()
	if title == "" {
		title = filepath.Base(path)
	}

	track, totalTracks := m.Track()
	disc, totalDiscs := m.Disc()

	albumArtist := m.AlbumArtist()
	if albumArtist == "" {
		albumArtist = m.Artist()
	}

	t := &Tag{
		Path:        path,
		Title:       title,
		Artist:      m.Artist(),
		AlbumArtist: albumArtist,
		Album:       m.Album(),
		Date:        yearToDate(m.Year()),
		TrackNumber: track,
		TotalTracks: totalTracks,
		DiscNumber:  disc,
		TotalDiscs:  totalDiscs,
		Genre:       m.Genre(),
	}

	if pic := m.Picture(); pic != nil {
		t.CoverArt = pic.Data
	}

	// Extended tags need format-specific parsing
	switch extOf(path) {
	case ExtMP3:
		readMP3ExtendedTags(path, t)
	case ExtFLAC:
		readFLACExtendedTags(path, t)
	}

	return t, nil
}

// yearToDate converts a year integer to a date string.
// Returns empty string for year 0.
func yearToDate(year int) string {
	if year == 0 {
		return ""
	}
	return strconv.Itoa(year)
}
