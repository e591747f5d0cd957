// Package track holds the in-memory representation of one track's
// tag/value map, with typed accessors and save-to-catalog.
package track

import (
	"strconv"
	"strings"

	"github.com/llehouerou/chorus/internal/catalog"
)

// Standard keys. Everything else a reader sets lands in the
// normalized track_meta side table on save.
const (
	KeyTitle       = "title"
	KeyAlbum       = "album"
	KeyArtist      = "artist"
	KeyAlbumArtist = "album_artist"
	KeyGenre       = "genre"
	KeyTrack       = "track"
	KeyDisc        = "disc"
	KeyYear        = "year"
	KeyBPM         = "bpm"
	KeyDuration    = "duration"
	KeyFilename    = "filename"
	KeyFiletime    = "filetime"
	KeyFilesize    = "filesize"
)

// LocalSourceID identifies the built-in local filesystem indexer
// source.
const LocalSourceID = 0

var standardKeys = map[string]bool{
	KeyTitle: true, KeyAlbum: true, KeyArtist: true, KeyAlbumArtist: true,
	KeyGenre: true, KeyTrack: true, KeyDisc: true, KeyYear: true,
	KeyBPM: true, KeyDuration: true, KeyFilename: true, KeyFiletime: true,
	KeyFilesize: true,
}

// Record is one track's metadata as a map of lowercase keys to string
// values, plus identity and the dirty bit.
type Record struct {
	id         int64
	sourceID   int64
	externalID string
	uri        string
	values     map[string]string
	thumbnail  []byte
	dirty      bool
}

// NewRecord creates an empty record for the given source and uri.
// For local files the uri doubles as the external id.
func NewRecord(sourceID int64, uri string) *Record {
	return &Record{
		sourceID:   sourceID,
		externalID: uri,
		uri:        uri,
		values:     make(map[string]string),
	}
}

// ID returns the catalog row id, or 0 before the first save.
func (r *Record) ID() int64 { return r.id }

// SetID binds the record to an existing catalog row.
func (r *Record) SetID(id int64) { r.id = id }

// SourceID returns the owning indexer source.
func (r *Record) SourceID() int64 { return r.sourceID }

// ExternalID returns the stable plugin-assigned identifier.
func (r *Record) ExternalID() string { return r.externalID }

// SetExternalID overrides the stable identifier.
func (r *Record) SetExternalID(id string) { r.externalID = id }

// URI returns the playback location of the track.
func (r *Record) URI() string { return r.uri }

// Dirty reports whether the record changed since load.
func (r *Record) Dirty() bool { return r.dirty }

// Get returns the raw value for key (lowercased), or "".
func (r *Record) Get(key string) string {
	return r.values[strings.ToLower(key)]
}

// GetInt64 parses the value for key, returning def when absent or
// unparseable.
func (r *Record) GetInt64(key string, def int64) int64 {
	v, ok := r.values[strings.ToLower(key)]
	if !ok {
		return def
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return def
	}
	return n
}

// GetFloat64 parses the value for key, returning def when absent or
// unparseable.
func (r *Record) GetFloat64(key string, def float64) float64 {
	v, ok := r.values[strings.ToLower(key)]
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}

// Set stores a value under the lowercased key and marks the record
// dirty.
func (r *Record) Set(key, value string) {
	r.values[strings.ToLower(key)] = value
	r.dirty = true
}

// SetInt64 stores an integer value.
func (r *Record) SetInt64(key string, value int64) {
	r.Set(key, strconv.FormatInt(value, 10))
}

// SetFloat64 stores a float value.
func (r *Record) SetFloat64(key string, value float64) {
	r.Set(key, strconv.FormatFloat(value, 'f', -1, 64))
}

// SetThumbnail attaches embedded cover art bytes for extraction at
// save time.
func (r *Record) SetThumbnail(data []byte) {
	r.thumbnail = data
	r.dirty = true
}

// Thumbnail returns the attached cover art, if any.
func (r *Record) Thumbnail() []byte { return r.thumbnail }

// Keys returns all set keys.
func (r *Record) Keys() []string {
	keys := make([]string, 0, len(r.values))
	for k := range r.values {
		keys = append(keys, k)
	}
	return keys
}

// NeedsIndexing compares the record's (filesize, filetime) against the
// catalog row for the same (folder, filename). A missing row or a
// mismatch on either flags the record dirty.
func (r *Record) NeedsIndexing(cat *catalog.Catalog, folderID int64) (bool, error) {
	existing, err := cat.TrackByLocation(folderID, r.Get(KeyFilename))
	if err != nil {
		return false, err
	}
	if existing == nil {
		r.dirty = true
		return true, nil
	}
	if existing.Filesize != r.GetInt64(KeyFilesize, 0) ||
		existing.Filetime != r.GetInt64(KeyFiletime, 0) {
		r.id = existing.ID
		r.dirty = true
		return true, nil
	}
	r.id = existing.ID
	return false, nil
}

// splitCredits splits a composite artist or genre value on commas and
// semicolons, trimming whitespace and dropping empties.
func splitCredits(v string) []string {
	fields := strings.FieldsFunc(v, func(c rune) bool {
		return c == ',' || c == ';'
	})
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
