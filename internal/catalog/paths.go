package catalog

import (
	"database/sql"
	"path/filepath"
	"strings"

	dbutil "github.com/llehouerou/chorus/internal/db"
)

// Path is a configured scan root.
type Path struct {
	ID   int64
	Path string
}

// Canonical normalizes a sync path to its canonical form: cleaned,
// with a single trailing separator.
func Canonical(p string) string {
	p = filepath.Clean(p)
	if !strings.HasSuffix(p, string(filepath.Separator)) {
		p += string(filepath.Separator)
	}
	return p
}

// AddPath inserts a scan root. Adding an existing path is a no-op.
func (c *Catalog) AddPath(p string) (int64, error) {
	p = Canonical(p)
	if _, err := c.db.Exec(`INSERT OR IGNORE INTO paths (path) VALUES (?)`, p); err != nil {
		return 0, err
	}
	var id int64
	err := c.db.QueryRow(`SELECT id FROM paths WHERE path = ?`, p).Scan(&id)
	return id, err
}

// RemovePath removes a scan root and everything under it: folders,
// tracks, and their side-table rows.
func (c *Catalog) RemovePath(p string) error {
	p = Canonical(p)
	var id int64
	err := c.db.QueryRow(`SELECT id FROM paths WHERE path = ?`, p).Scan(&id)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}

	return dbutil.WithTx(c.db, func(tx *sql.Tx) error {
		if err := deleteTracksInFoldersOfPath(tx, id); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM folders WHERE path_id = ?`, id); err != nil {
			return err
		}
		_, err := tx.Exec(`DELETE FROM paths WHERE id = ?`, id)
		return err
	})
}

func deleteTracksInFoldersOfPath(tx *sql.Tx, pathID int64) error {
	deletes := []string{
		`DELETE FROM track_artists WHERE track_id IN
			(SELECT id FROM tracks WHERE folder_id IN (SELECT id FROM folders WHERE path_id = ?))`,
		`DELETE FROM track_genres WHERE track_id IN
			(SELECT id FROM tracks WHERE folder_id IN (SELECT id FROM folders WHERE path_id = ?))`,
		`DELETE FROM track_meta WHERE track_id IN
			(SELECT id FROM tracks WHERE folder_id IN (SELECT id FROM folders WHERE path_id = ?))`,
		`DELETE FROM tracks WHERE folder_id IN (SELECT id FROM folders WHERE path_id = ?)`,
	}
	for _, q := range deletes {
		if _, err := tx.Exec(q, pathID); err != nil {
			return err
		}
	}
	return nil
}

// Paths returns all configured scan roots.
func (c *Catalog) Paths() ([]Path, error) {
	rows, err := c.db.Query(`SELECT id, path FROM paths ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []Path
	for rows.Next() {
		var p Path
		if err := rows.Scan(&p.ID, &p.Path); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// DeleteFoldersWithoutPath removes folder rows whose owning path no
// longer exists, and the tracks inside them.
func (c *Catalog) DeleteFoldersWithoutPath() error {
	return dbutil.WithTx(c.db, func(tx *sql.Tx) error {
		orphanTracks := []string{
			`DELETE FROM track_artists WHERE track_id IN (SELECT id FROM tracks WHERE folder_id IN
				(SELECT id FROM folders WHERE path_id NOT IN (SELECT id FROM paths)))`,
			`DELETE FROM track_genres WHERE track_id IN (SELECT id FROM tracks WHERE folder_id IN
				(SELECT id FROM folders WHERE path_id NOT IN (SELECT id FROM paths)))`,
			`DELETE FROM track_meta WHERE track_id IN (SELECT id FROM tracks WHERE folder_id IN
				(SELECT id FROM folders WHERE path_id NOT IN (SELECT id FROM paths)))`,
			`DELETE FROM tracks WHERE folder_id IN
				(SELECT id FROM folders WHERE path_id NOT IN (SELECT id FROM paths))`,
			`DELETE FROM folders WHERE path_id NOT IN (SELECT id FROM paths)`,
		}
		for _, q := range orphanTracks {
			if _, err := tx.Exec(q); err != nil {
				return err
			}
		}
		return nil
	})
}
