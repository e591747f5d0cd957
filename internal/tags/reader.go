package tags

import (
	"path/filepath"
	"strconv"

	"github.com/llehouerou/chorus/internal/plugin"
	"github.com/llehouerou/chorus/internal/track"
)

// Reader is the built-in metadata reader capability.
type Reader struct{}

var _ plugin.MetadataReader = (*Reader)(nil)

// CanRead reports whether the reader handles files with the extension.
func (Reader) CanRead(ext string) bool {
	return CanRead(ext)
}

// ReadTag extracts tags and stream properties from path into the
// track writer. A file no reader can parse fails the whole read.
func (Reader) ReadTag(path string, w plugin.TrackWriter) error {
	t, err := Read(path)
	if err != nil {
		return err
	}

	w.Set(track.KeyTitle, t.Title)
	w.Set(track.KeyAlbum, t.Album)
	w.Set(track.KeyArtist, t.Artist)
	w.Set(track.KeyAlbumArtist, t.AlbumArtist)
	w.Set(track.KeyGenre, t.Genre)
	if t.TrackNumber > 0 {
		w.SetInt64(track.KeyTrack, int64(t.TrackNumber))
	}
	if t.DiscNumber > 0 {
		w.SetInt64(track.KeyDisc, int64(t.DiscNumber))
	}
	if y := t.Year(); y > 0 {
		w.SetInt64(track.KeyYear, int64(y))
	}
	if t.BPM > 0 {
		w.SetFloat64(track.KeyBPM, t.BPM)
	}

	// Extended tags land in the normalized meta side table.
	if t.OriginalDate != "" {
		w.Set("original_date", t.OriginalDate)
	}
	if t.Label != "" {
		w.Set("label", t.Label)
	}
	if t.CatalogNumber != "" {
		w.Set("catalog_number", t.CatalogNumber)
	}
	if t.ISRC != "" {
		w.Set("isrc", t.ISRC)
	}
	if t.TotalTracks > 0 {
		w.Set("total_tracks", strconv.Itoa(t.TotalTracks))
	}
	if t.TotalDiscs > 0 {
		w.Set("total_discs", strconv.Itoa(t.TotalDiscs))
	}

	if info, err := ReadAudioInfo(path); err == nil {
		w.SetInt64(track.KeyDuration, int64(info.Duration.Seconds()))
		w.Set("format", info.Format)
		w.Set("sample_rate", strconv.Itoa(info.SampleRate))
		w.Set("bit_depth", strconv.Itoa(info.BitDepth))
	}

	art := t.CoverArt
	if art == nil {
		art = FindFolderArt(filepath.Dir(path))
	}
	if art != nil {
		w.SetThumbnail(art)
	}

	return nil
}

func init() {
	plugin.Register(func(plugin.Environment) ([]plugin.Capability, error) {
		return []plugin.Capability{{
			Info: plugin.Info{
				Name:       "taglib-reader",
				Version:    "1.0",
				Author:     "chorus",
				GUID:       "7c1f0d0a-builtin-tags",
				SDKVersion: plugin.SDKVersion,
			},
			Reader: Reader{},
		}}, nil
	})
}
