package tags

import (
	"path/filepath"
	"strconv"

	"github.com/bogem/id3v2/v2"
)

// readMP3ExtendedTags reads extended ID3v2 tags from an MP3 file.
func readMP3ExtendedTags(path string, t *Tag) {
	id3tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return
	}
	defer id3tag.Close()

	// Date frames: ID3v2.4 first, then ID3v2.3
	if t.Date == "" {
		t.Date = getID3TextFrame(id3tag, "TDRC")
	}
	if t.Date == "" {
		t.Date = getID3TextFrame(id3tag, "TYER")
	}

	t.OriginalDate = getID3TextFrame(id3tag, "TDOR")
	if t.OriginalDate == "" {
		t.OriginalDate = getID3TextFrame(id3tag, "TORY")
	}

	t.Label = getID3TextFrame(id3tag, "TPUB")
	t.ISRC = getID3TextFrame(id3tag, "TSRC")
	t.CatalogNumber = getID3TXXXFrame(id3tag, "CATALOGNUMBER")

	if bpm := getID3TextFrame(id3tag, "TBPM"); bpm != "" {
		if v, err := strconv.ParseFloat(bpm, 64); err == nil {
			t.BPM = v
		}
	}
}

// readMP3WithID3v2Fallback reads MP3 metadata using only the id3v2
// library. Used when dhowden/tag fails (e.g., on some UTF-16 encoded
// tags).
func readMP3WithID3v2Fallback(path string) (*Tag, error) {
	id3tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, err
	}
	defer id3tag.Close()

	title := id3tag.Title()
	if title == "" {
		title = filepath.Base(path)
	}

	artist := id3tag.Artist()
	albumArtist := getID3TextFrame(id3tag, "TPE2")
	if albumArtist == "" {
		albumArtist = artist
	}

	track, totalTracks := parseNumberPair(getID3TextFrame(id3tag, "TRCK"))
	disc, totalDiscs := parseNumberPair(getID3TextFrame(id3tag, "TPOS"))

	date := ""
	if yearStr := id3tag.Year(); len(yearStr) >= 4 {
		date = yearStr[:4]
	}

	t := &Tag{
		Path:        path,
		Title:       title,
		Artist:      artist,
		AlbumArtist: albumArtist,
		Album:       id3tag.Album(),
		Date:        date,
		TrackNumber: track,
		TotalTracks: totalTracks,
		DiscNumber:  disc,
		TotalDiscs:  totalDiscs,
		Genre:       id3tag.Genre(),
	}

	readMP3ExtendedTags(path, t)
	return t, nil
}

// getID3TextFrame reads a text frame value from an ID3v2 tag.
func getID3TextFrame(id3tag *id3v2.Tag, frameID string) string {
	frames := id3tag.GetFrames(frameID)
	if len(frames) == 0 {
		return ""
	}
	if tf, ok := frames[0].(id3v2.TextFrame); ok {
		return tf.Text
	}
	return ""
}

// getID3TXXXFrame reads a user-defined text frame (TXXX) value.
func getID3TXXXFrame(id3tag *id3v2.Tag, description string) string {
	frames := id3tag.GetFrames("TXXX")
	for _, frame := range frames {
		if txxx, ok := frame.(id3v2.UserDefinedTextFrame); ok {
			if txxx.Description == description {
				return txxx.Value
			}
		}
	}
	return ""
}
