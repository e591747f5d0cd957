package catalog

import (
	"database/sql"

	dbutil "github.com/llehouerou/chorus/internal/db"
)

// TrackRow mirrors one row of the tracks table.
type TrackRow struct {
	ID             int64
	ExternalID     string
	SourceID       int64
	Filename       string
	Filetime       int64
	Filesize       int64
	Duration       int64
	TrackNum       *int64
	Disc           *int64
	Year           *int64
	BPM            *float64
	Title          string
	AlbumID        *int64
	VisualArtistID *int64
	AlbumArtistID  *int64
	VisualGenreID  *int64
	FolderID       *int64
	ThumbnailID    *int64
}

const trackColumns = `id, external_id, source_id, filename, filetime, filesize, duration,
	track_num, disc, year, bpm, title, album_id, visual_artist_id, album_artist_id,
	visual_genre_id, folder_id, thumbnail_id`

func scanTrackRow(row interface{ Scan(...any) error }) (*TrackRow, error) {
	var t TrackRow
	var trackNum, disc, year, albumID, visualArtistID, albumArtistID, visualGenreID, folderID, thumbnailID sql.NullInt64
	var bpm sql.NullFloat64
	var title sql.NullString
	err := row.Scan(&t.ID, &t.ExternalID, &t.SourceID, &t.Filename, &t.Filetime, &t.Filesize,
		&t.Duration, &trackNum, &disc, &year, &bpm, &title, &albumID, &visualArtistID,
		&albumArtistID, &visualGenreID, &folderID, &thumbnailID)
	if err != nil {
		return nil, err
	}
	t.TrackNum = dbutil.NullInt64ToPtr(trackNum)
	t.Disc = dbutil.NullInt64ToPtr(disc)
	t.Year = dbutil.NullInt64ToPtr(year)
	if bpm.Valid {
		t.BPM = &bpm.Float64
	}
	t.Title = dbutil.NullStringValue(title)
	t.AlbumID = dbutil.NullInt64ToPtr(albumID)
	t.VisualArtistID = dbutil.NullInt64ToPtr(visualArtistID)
	t.AlbumArtistID = dbutil.NullInt64ToPtr(albumArtistID)
	t.VisualGenreID = dbutil.NullInt64ToPtr(visualGenreID)
	t.FolderID = dbutil.NullInt64ToPtr(folderID)
	t.ThumbnailID = dbutil.NullInt64ToPtr(thumbnailID)
	return &t, nil
}

// TrackByID loads one track row.
func (c *Catalog) TrackByID(id int64) (*TrackRow, error) {
	row := c.db.QueryRow(`SELECT `+trackColumns+` FROM tracks WHERE id = ?`, id)
	return scanTrackRow(row)
}

// TrackByLocation finds the track stored for (folder, filename).
// Returns nil when no row exists. This is the dedup hot path, so the
// statement is prepared once per connection.
func (c *Catalog) TrackByLocation(folderID int64, filename string) (*TrackRow, error) {
	stmt, err := c.stmts.Get(
		`SELECT ` + trackColumns + ` FROM tracks WHERE folder_id = ? AND filename = ?`)
	if err != nil {
		return nil, err
	}
	t, err := scanTrackRow(stmt.QueryRow(folderID, filename))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// TrackByExternalID finds the track owned by (source, external id).
// Returns nil when no row exists.
func (c *Catalog) TrackByExternalID(sourceID int64, externalID string) (*TrackRow, error) {
	row := c.db.QueryRow(
		`SELECT `+trackColumns+` FROM tracks WHERE source_id = ? AND external_id = ?`,
		sourceID, externalID)
	t, err := scanTrackRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// UpsertTrack inserts the row, or updates it in place when t.ID is set.
// Returns the track id.
func (c *Catalog) UpsertTrack(t *TrackRow) (int64, error) {
	if t.ID > 0 {
		_, err := c.db.Exec(`
			UPDATE tracks SET external_id = ?, source_id = ?, filename = ?, filetime = ?,
				filesize = ?, duration = ?, track_num = ?, disc = ?, year = ?, bpm = ?,
				title = ?, album_id = ?, visual_artist_id = ?, album_artist_id = ?,
				visual_genre_id = ?, folder_id = ?, thumbnail_id = ?
			WHERE id = ?`,
			t.ExternalID, t.SourceID, t.Filename, t.Filetime, t.Filesize, t.Duration,
			t.TrackNum, t.Disc, t.Year, t.BPM, t.Title, t.AlbumID, t.VisualArtistID,
			t.AlbumArtistID, t.VisualGenreID, t.FolderID, t.ThumbnailID, t.ID)
		return t.ID, err
	}

	res, err := c.db.Exec(`
		INSERT INTO tracks (external_id, source_id, filename, filetime, filesize, duration,
			track_num, disc, year, bpm, title, album_id, visual_artist_id, album_artist_id,
			visual_genre_id, folder_id, thumbnail_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ExternalID, t.SourceID, t.Filename, t.Filetime, t.Filesize, t.Duration,
		t.TrackNum, t.Disc, t.Year, t.BPM, t.Title, t.AlbumID, t.VisualArtistID,
		t.AlbumArtistID, t.VisualGenreID, t.FolderID, t.ThumbnailID)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	t.ID = id
	return id, nil
}

// ReplaceTrackArtists rewrites the composite artist credits of a track.
func (c *Catalog) ReplaceTrackArtists(trackID int64, artistIDs []int64) error {
	return c.replaceM2M("track_artists", "artist_id", trackID, artistIDs)
}

// ReplaceTrackGenres rewrites the composite genre credits of a track.
func (c *Catalog) ReplaceTrackGenres(trackID int64, genreIDs []int64) error {
	return c.replaceM2M("track_genres", "genre_id", trackID, genreIDs)
}

// ReplaceTrackMeta rewrites the key/value side table of a track.
func (c *Catalog) ReplaceTrackMeta(trackID int64, metaValueIDs []int64) error {
	return c.replaceM2M("track_meta", "meta_value_id", trackID, metaValueIDs)
}

func (c *Catalog) replaceM2M(table, column string, trackID int64, ids []int64) error {
	return dbutil.WithTx(c.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE track_id = ?`, trackID); err != nil {
			return err
		}
		for _, id := range ids {
			if _, err := tx.Exec(
				`INSERT INTO `+table+` (track_id, `+column+`) VALUES (?, ?)`,
				trackID, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteTrack removes a track row and its side-table rows.
func (c *Catalog) DeleteTrack(id int64) error {
	return dbutil.WithTx(c.db, func(tx *sql.Tx) error {
		for _, q := range []string{
			`DELETE FROM track_artists WHERE track_id = ?`,
			`DELETE FROM track_genres WHERE track_id = ?`,
			`DELETE FROM track_meta WHERE track_id = ?`,
			`DELETE FROM tracks WHERE id = ?`,
		} {
			if _, err := tx.Exec(q, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// TrackLocation is the on-disk identity of a local track, used by the
// delete sweep.
type TrackLocation struct {
	ID       int64
	Filename string
	FolderID int64
}

// TracksInFolder lists the local tracks stored directly in a folder.
func (c *Catalog) TracksInFolder(folderID int64) ([]TrackLocation, error) {
	rows, err := c.db.Query(
		`SELECT id, filename, folder_id FROM tracks WHERE folder_id = ? AND source_id = 0`,
		folderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []TrackLocation
	for rows.Next() {
		var t TrackLocation
		if err := rows.Scan(&t.ID, &t.Filename, &t.FolderID); err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// TrackIDs returns all track ids ordered ascending. Used by the audio
// analysis pass.
func (c *Catalog) TrackIDs() ([]int64, error) {
	rows, err := c.db.Query(`SELECT id FROM tracks ORDER BY id`)
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

// TrackCount returns the number of tracks in the catalog.
func (c *Catalog) TrackCount() (int, error) {
	var n int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM tracks`).Scan(&n)
	return n, err
}
