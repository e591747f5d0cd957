package catalog

import (
	"database/sql"

	dbutil "github.com/llehouerou/chorus/internal/db"
)

// Playlist is a named ordered list of track references.
type Playlist struct {
	ID   int64
	Name string
}

// PlaylistTrack is one entry of a playlist: the referenced track's
// stable external id qualified by its owning source.
type PlaylistTrack struct {
	ExternalID string
	SourceID   int64
	SortOrder  int
}

// CreatePlaylist creates an empty playlist and returns its id.
func (c *Catalog) CreatePlaylist(name string) (int64, error) {
	res, err := c.db.Exec(`INSERT INTO playlists (name) VALUES (?)`, name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RenamePlaylist atomically renames a playlist.
func (c *Catalog) RenamePlaylist(id int64, name string) error {
	_, err := c.db.Exec(`UPDATE playlists SET name = ? WHERE id = ?`, name, id)
	return err
}

// DeletePlaylist removes a playlist and its entries.
func (c *Catalog) DeletePlaylist(id int64) error {
	return dbutil.WithTx(c.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM playlist_tracks WHERE playlist_id = ?`, id); err != nil {
			return err
		}
		_, err := tx.Exec(`DELETE FROM playlists WHERE id = ?`, id)
		return err
	})
}

// Playlists lists all playlists by name.
func (c *Catalog) Playlists() ([]Playlist, error) {
	rows, err := c.db.Query(`SELECT id, name FROM playlists ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var playlists []Playlist
	for rows.Next() {
		var p Playlist
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// PlaylistByID loads one playlist, or nil when absent.
func (c *Catalog) PlaylistByID(id int64) (*Playlist, error) {
	var p Playlist
	err := c.db.QueryRow(`SELECT id, name FROM playlists WHERE id = ?`, id).Scan(&p.ID, &p.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PlaylistTracks returns a playlist's entries in sort order.
func (c *Catalog) PlaylistTracks(playlistID int64) ([]PlaylistTrack, error) {
	rows, err := c.db.Query(`
		SELECT track_external_id, source_id, sort_order
		FROM playlist_tracks WHERE playlist_id = ?
		ORDER BY sort_order
	`, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []PlaylistTrack
	for rows.Next() {
		var t PlaylistTrack
		if err := rows.Scan(&t.ExternalID, &t.SourceID, &t.SortOrder); err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// PlaylistTrackCount returns the number of entries in a playlist.
func (c *Catalog) PlaylistTrackCount(playlistID int64) (int, error) {
	var n int
	err := c.db.QueryRow(
		`SELECT COUNT(*) FROM playlist_tracks WHERE playlist_id = ?`, playlistID).Scan(&n)
	return n, err
}

// AppendPlaylistTracks inserts entries at offset, shifting later
// entries up. offset < 0 appends at the end. sort_order stays a dense
// 0..n-1 sequence.
func (c *Catalog) AppendPlaylistTracks(playlistID int64, tracks []PlaylistTrack, offset int) error {
	if len(tracks) == 0 {
		return nil
	}

	count, err := c.PlaylistTrackCount(playlistID)
	if err != nil {
		return err
	}
	if offset < 0 || offset > count {
		offset = count
	}

	return dbutil.WithTx(c.db, func(tx *sql.Tx) error {
		// Make room for the inserted block
		if _, err := tx.Exec(`
			UPDATE playlist_tracks SET sort_order = sort_order + ?
			WHERE playlist_id = ? AND sort_order >= ?
		`, len(tracks), playlistID, offset); err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
			INSERT INTO playlist_tracks (playlist_id, track_external_id, source_id, sort_order)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, t := range tracks {
			if _, err := stmt.Exec(playlistID, t.ExternalID, t.SourceID, offset+i); err != nil {
				return err
			}
		}
		return nil
	})
}

// RemovePlaylistTracks removes the entries at the given sort positions
// and compacts sort_order back to 0..n-1.
func (c *Catalog) RemovePlaylistTracks(playlistID int64, positions []int) error {
	if len(positions) == 0 {
		return nil
	}

	return dbutil.WithTx(c.db, func(tx *sql.Tx) error {
		for _, pos := range positions {
			if _, err := tx.Exec(`
				DELETE FROM playlist_tracks WHERE playlist_id = ? AND sort_order = ?
			`, playlistID, pos); err != nil {
				return err
			}
		}
		return compactPlaylist(tx, playlistID)
	})
}

// compactPlaylist rewrites sort_order to a contiguous 0..n-1 sequence.
func compactPlaylist(tx *sql.Tx, playlistID int64) error {
	rows, err := tx.Query(`
		SELECT rowid FROM playlist_tracks WHERE playlist_id = ? ORDER BY sort_order
	`, playlistID)
	if err != nil {
		return err
	}
	var rowids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		rowids = append(rowids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for order, rowid := range rowids {
		if _, err := tx.Exec(
			`UPDATE playlist_tracks SET sort_order = ? WHERE rowid = ?`, order, rowid); err != nil {
			return err
		}
	}
	return nil
}
