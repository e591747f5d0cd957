package catalog

import (
	"database/sql"

	dbutil "github.com/llehouerou/chorus/internal/db"
)

// DeleteOrphans cascade-deletes dimension rows no longer referenced by
// any track. Runs at the end of every scan.
//
// Order matters: the m2m rows go first so the dimension sweeps see the
// final reference sets.
func (c *Catalog) DeleteOrphans() error {
	return dbutil.WithTx(c.db, func(tx *sql.Tx) error {
		queries := []string{
			`DELETE FROM track_artists WHERE track_id NOT IN (SELECT id FROM tracks)`,
			`DELETE FROM track_genres WHERE track_id NOT IN (SELECT id FROM tracks)`,
			`DELETE FROM track_meta WHERE track_id NOT IN (SELECT id FROM tracks)`,
			`DELETE FROM artists WHERE id NOT IN (SELECT artist_id FROM track_artists)
				AND id NOT IN (SELECT visual_artist_id FROM tracks WHERE visual_artist_id IS NOT NULL)
				AND id NOT IN (SELECT album_artist_id FROM tracks WHERE album_artist_id IS NOT NULL)`,
			`DELETE FROM genres WHERE id NOT IN (SELECT genre_id FROM track_genres)
				AND id NOT IN (SELECT visual_genre_id FROM tracks WHERE visual_genre_id IS NOT NULL)`,
			`DELETE FROM albums WHERE id NOT IN (SELECT album_id FROM tracks WHERE album_id IS NOT NULL)`,
			`DELETE FROM meta_values WHERE id NOT IN (SELECT meta_value_id FROM track_meta)`,
			`DELETE FROM meta_keys WHERE id NOT IN (SELECT meta_key_id FROM meta_values)`,
		}
		for _, q := range queries {
			if _, err := tx.Exec(q); err != nil {
				return err
			}
		}
		return nil
	})
}
