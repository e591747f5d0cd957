package track

import (
	"path/filepath"

	"github.com/llehouerou/chorus/internal/catalog"
)

// Save persists the record: resolves dimension rows, extracts embedded
// cover art, inserts or updates the tracks row, then rewrites the
// composite artist/genre credits and flushes the meta side table.
//
// Both the visual columns and the many-to-many credit sets are written
// on every save.
func (r *Record) Save(cat *catalog.Catalog, folderID int64) error {
	row := &catalog.TrackRow{
		ID:         r.id,
		ExternalID: r.externalID,
		SourceID:   r.sourceID,
		Filename:   r.Get(KeyFilename),
		Filetime:   r.GetInt64(KeyFiletime, 0),
		Filesize:   r.GetInt64(KeyFilesize, 0),
		Duration:   r.GetInt64(KeyDuration, 0),
		Title:      r.Get(KeyTitle),
	}
	if folderID > 0 {
		row.FolderID = &folderID
	}

	if v := r.GetInt64(KeyTrack, -1); v >= 0 {
		row.TrackNum = &v
	}
	if v := r.GetInt64(KeyDisc, -1); v >= 0 {
		row.Disc = &v
	}
	if v := r.GetInt64(KeyYear, -1); v >= 0 {
		row.Year = &v
	}
	if v := r.GetFloat64(KeyBPM, -1); v >= 0 {
		row.BPM = &v
	}

	// Dimension rows: display names as tagged.
	if album := r.Get(KeyAlbum); album != "" {
		id, err := cat.ResolveAlbum(album)
		if err != nil {
			return err
		}
		row.AlbumID = &id
	}
	visualArtist := r.Get(KeyArtist)
	if visualArtist != "" {
		id, err := cat.ResolveArtist(visualArtist)
		if err != nil {
			return err
		}
		row.VisualArtistID = &id
	}
	if albumArtist := r.Get(KeyAlbumArtist); albumArtist != "" {
		id, err := cat.ResolveArtist(albumArtist)
		if err != nil {
			return err
		}
		row.AlbumArtistID = &id
	} else {
		row.AlbumArtistID = row.VisualArtistID
	}
	if genre := r.Get(KeyGenre); genre != "" {
		id, err := cat.ResolveGenre(genre)
		if err != nil {
			return err
		}
		row.VisualGenreID = &id
	}

	if len(r.thumbnail) > 0 {
		id, err := cat.ResolveThumbnail(r.thumbnail)
		if err != nil {
			return err
		}
		row.ThumbnailID = &id
	}

	id, err := cat.UpsertTrack(row)
	if err != nil {
		return err
	}
	r.id = id

	if err := r.saveCredits(cat); err != nil {
		return err
	}
	if err := r.saveMeta(cat); err != nil {
		return err
	}

	r.dirty = false
	return nil
}

// saveCredits splits the composite artist and genre values into the
// many-to-many tables.
func (r *Record) saveCredits(cat *catalog.Catalog) error {
	var artistIDs []int64
	for _, name := range splitCredits(r.Get(KeyArtist)) {
		id, err := cat.ResolveArtist(name)
		if err != nil {
			return err
		}
		artistIDs = append(artistIDs, id)
	}
	if err := cat.ReplaceTrackArtists(r.id, artistIDs); err != nil {
		return err
	}

	var genreIDs []int64
	for _, name := range splitCredits(r.Get(KeyGenre)) {
		id, err := cat.ResolveGenre(name)
		if err != nil {
			return err
		}
		genreIDs = append(genreIDs, id)
	}
	return cat.ReplaceTrackGenres(r.id, genreIDs)
}

// saveMeta flushes every non-standard key into the normalized
// key/value side table.
func (r *Record) saveMeta(cat *catalog.Catalog) error {
	var valueIDs []int64
	for key, value := range r.values {
		if standardKeys[key] || value == "" {
			continue
		}
		keyID, err := cat.ResolveMetaKey(key)
		if err != nil {
			return err
		}
		valueID, err := cat.ResolveMetaValue(keyID, value)
		if err != nil {
			return err
		}
		valueIDs = append(valueIDs, valueID)
	}
	return cat.ReplaceTrackMeta(r.id, valueIDs)
}

// Load materializes a record from its catalog row, including the meta
// side table.
func Load(cat *catalog.Catalog, id int64) (*Record, error) {
	row, err := cat.TrackByID(id)
	if err != nil {
		return nil, err
	}

	r := &Record{
		id:         row.ID,
		sourceID:   row.SourceID,
		externalID: row.ExternalID,
		values:     make(map[string]string),
	}

	r.values[KeyFilename] = row.Filename
	r.SetInt64(KeyFiletime, row.Filetime)
	r.SetInt64(KeyFilesize, row.Filesize)
	r.SetInt64(KeyDuration, row.Duration)
	if row.Title != "" {
		r.values[KeyTitle] = row.Title
	}
	if row.TrackNum != nil {
		r.SetInt64(KeyTrack, *row.TrackNum)
	}
	if row.Disc != nil {
		r.SetInt64(KeyDisc, *row.Disc)
	}
	if row.Year != nil {
		r.SetInt64(KeyYear, *row.Year)
	}
	if row.BPM != nil {
		r.SetFloat64(KeyBPM, *row.BPM)
	}

	if err := loadNames(cat, r, row); err != nil {
		return nil, err
	}
	if err := loadMeta(cat, r, row.ID); err != nil {
		return nil, err
	}

	r.uri = uriForRow(cat, row)
	if r.sourceID != LocalSourceID && r.uri == "" {
		r.uri = row.ExternalID
	}
	r.dirty = false
	return r, nil
}

func loadNames(cat *catalog.Catalog, r *Record, row *catalog.TrackRow) error {
	lookup := func(table string, id *int64) (string, error) {
		if id == nil {
			return "", nil
		}
		var name string
		err := cat.DB().QueryRow(`SELECT name FROM `+table+` WHERE id = ?`, *id).Scan(&name)
		return name, err
	}

	album, err := lookup("albums", row.AlbumID)
	if err != nil {
		return err
	}
	if album != "" {
		r.values[KeyAlbum] = album
	}
	artist, err := lookup("artists", row.VisualArtistID)
	if err != nil {
		return err
	}
	if artist != "" {
		r.values[KeyArtist] = artist
	}
	albumArtist, err := lookup("artists", row.AlbumArtistID)
	if err != nil {
		return err
	}
	if albumArtist != "" {
		r.values[KeyAlbumArtist] = albumArtist
	}
	genre, err := lookup("genres", row.VisualGenreID)
	if err != nil {
		return err
	}
	if genre != "" {
		r.values[KeyGenre] = genre
	}
	return nil
}

func loadMeta(cat *catalog.Catalog, r *Record, trackID int64) error {
	rows, err := cat.DB().Query(`
		SELECT k.name, v.content
		FROM track_meta tm
		JOIN meta_values v ON tm.meta_value_id = v.id
		JOIN meta_keys k ON v.meta_key_id = k.id
		WHERE tm.track_id = ?
	`, trackID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return err
		}
		r.values[key] = value
	}
	return rows.Err()
}

// uriForRow reconstructs the on-disk path of a local track from its
// folder and scan root.
func uriForRow(cat *catalog.Catalog, row *catalog.TrackRow) string {
	if row.FolderID == nil {
		return ""
	}
	var rootPath, relative string
	err := cat.DB().QueryRow(`
		SELECT p.path, f.relative_path
		FROM folders f JOIN paths p ON f.path_id = p.id
		WHERE f.id = ?
	`, *row.FolderID).Scan(&rootPath, &relative)
	if err != nil {
		return ""
	}
	return filepath.Join(rootPath, relative, row.Filename)
}
