// Package metadata is the query facade plugins and clients use: typed
// queries over the catalog, category listings, and playlist CRUD. The
// queries come in synchronous and asynchronous forms; the playlist
// calls are synchronous.
package metadata

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/llehouerou/chorus/internal/catalog"
	"github.com/llehouerou/chorus/internal/track"
)

// Category names accepted by ListCategory.
const (
	CategoryAlbum  = "album"
	CategoryArtist = "artist"
	CategoryGenre  = "genre"
)

// ErrUnknownCategory is returned for a category name the proxy does
// not serve.
var ErrUnknownCategory = errors.New("unknown category")

// Value is one category entry.
type Value struct {
	ID        int64
	Name      string
	SortOrder int
}

// TrackResult is one search hit.
type TrackResult struct {
	ID       int64
	Title    string
	Artist   string
	Album    string
	Filename string
}

// Proxy serves queries over the catalog. Mutating calls take the
// catalog writer lock so they never interleave with a scan.
type Proxy struct {
	cat *catalog.Catalog
	log *slog.Logger

	subsMu sync.RWMutex
	subs   []chan int64
}

// New creates a proxy over the catalog.
func New(cat *catalog.Catalog, log *slog.Logger) *Proxy {
	if log == nil {
		log = slog.Default()
	}
	return &Proxy{cat: cat, log: log.With("component", "metadata")}
}

// PlaylistModified returns a channel receiving the id of every
// modified playlist.
func (p *Proxy) PlaylistModified() <-chan int64 {
	p.subsMu.Lock()
	defer p.subsMu.Unlock()
	ch := make(chan int64, 16)
	p.subs = append(p.subs, ch)
	return ch
}

func (p *Proxy) notifyPlaylist(id int64) {
	p.subsMu.RLock()
	for _, ch := range p.subs {
		select {
		case ch <- id:
		default:
		}
	}
	p.subsMu.RUnlock()
}

// ListCategory lists a dimension table ordered by its precomputed
// sort order.
func (p *Proxy) ListCategory(category string) ([]Value, error) {
	table, err := categoryTable(category)
	if err != nil {
		return nil, err
	}

	rows, err := p.cat.DB().Query(
		`SELECT id, name, sort_order FROM ` + table + ` ORDER BY sort_order`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []Value
	for rows.Next() {
		var v Value
		if err := rows.Scan(&v.ID, &v.Name, &v.SortOrder); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func categoryTable(category string) (string, error) {
	switch category {
	case CategoryAlbum:
		return "albums", nil
	case CategoryArtist:
		return "artists", nil
	case CategoryGenre:
		return "genres", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
}

// SearchTracks finds tracks whose title or filename contains the
// filter, ordered by the precomputed track sort order. An empty
// filter lists everything.
func (p *Proxy) SearchTracks(filter string, limit int) ([]TrackResult, error) {
	if limit <= 0 {
		limit = 200
	}
	pattern := "%" + filter + "%"
	rows, err := p.cat.DB().Query(`
		SELECT t.id, COALESCE(t.title, ''), COALESCE(ar.name, ''), COALESCE(al.name, ''), t.filename
		FROM tracks t
		LEFT JOIN artists ar ON t.visual_artist_id = ar.id
		LEFT JOIN albums al ON t.album_id = al.id
		WHERE t.title LIKE ? OR t.filename LIKE ?
		ORDER BY t.sort_order
		LIMIT ?
	`, pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []TrackResult
	for rows.Next() {
		var r TrackResult
		if err := rows.Scan(&r.ID, &r.Title, &r.Artist, &r.Album, &r.Filename); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// TracksByCategory lists the track ids referencing one category value,
// in track sort order.
func (p *Proxy) TracksByCategory(category string, valueID int64) ([]int64, error) {
	var query string
	switch category {
	case CategoryAlbum:
		query = `SELECT id FROM tracks WHERE album_id = ? ORDER BY sort_order`
	case CategoryArtist:
		query = `SELECT t.id FROM tracks t
			LEFT JOIN track_artists ta ON ta.track_id = t.id
			WHERE t.visual_artist_id = ? OR t.album_artist_id = ? OR ta.artist_id = ?
			GROUP BY t.id ORDER BY t.sort_order`
	case CategoryGenre:
		query = `SELECT t.id FROM tracks t
			LEFT JOIN track_genres tg ON tg.track_id = t.id
			WHERE t.visual_genre_id = ? OR tg.genre_id = ?
			GROUP BY t.id ORDER BY t.sort_order`
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}

	var args []any
	switch category {
	case CategoryAlbum:
		args = []any{valueID}
	case CategoryArtist:
		args = []any{valueID, valueID, valueID}
	case CategoryGenre:
		args = []any{valueID, valueID}
	}

	rows, err := p.cat.DB().Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LoadTrack materializes one track record.
func (p *Proxy) LoadTrack(id int64) (*track.Record, error) {
	return track.Load(p.cat, id)
}
