package catalog

import (
	"database/sql"

	dbutil "github.com/llehouerou/chorus/internal/db"
)

// Folder is a directory discovered under a scan root. Identity is
// (name, parent_id, path_id); relative_path stores the portion below
// the root.
type Folder struct {
	ID           int64
	Name         string
	ParentID     *int64
	PathID       int64
	RelativePath string
}

// UpsertFolder resolves the folder row for (name, parent, path),
// creating it on first encounter, and returns its id.
func (c *Catalog) UpsertFolder(name string, parentID *int64, pathID int64, relativePath string) (int64, error) {
	var parent sql.NullInt64
	if parentID != nil {
		parent = sql.NullInt64{Int64: *parentID, Valid: true}
	}

	var id int64
	var err error
	if parent.Valid {
		err = c.db.QueryRow(
			`SELECT id FROM folders WHERE name = ? AND parent_id = ? AND path_id = ?`,
			name, parent.Int64, pathID).Scan(&id)
	} else {
		err = c.db.QueryRow(
			`SELECT id FROM folders WHERE name = ? AND parent_id IS NULL AND path_id = ?`,
			name, pathID).Scan(&id)
	}
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	res, err := c.db.Exec(
		`INSERT INTO folders (name, parent_id, path_id, relative_path) VALUES (?, ?, ?, ?)`,
		name, parent, pathID, relativePath)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// FoldersUnderPath lists all folders belonging to a scan root.
func (c *Catalog) FoldersUnderPath(pathID int64) ([]Folder, error) {
	rows, err := c.db.Query(`
		SELECT id, name, parent_id, path_id, relative_path
		FROM folders WHERE path_id = ?
		ORDER BY relative_path
	`, pathID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []Folder
	for rows.Next() {
		var f Folder
		var parent sql.NullInt64
		if err := rows.Scan(&f.ID, &f.Name, &parent, &f.PathID, &f.RelativePath); err != nil {
			return nil, err
		}
		f.ParentID = dbutil.NullInt64ToPtr(parent)
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// DeleteFolder removes a folder, its subfolders, and all tracks inside
// them.
func (c *Catalog) DeleteFolder(id int64) error {
	subtree, err := c.folderSubtree(id)
	if err != nil {
		return err
	}

	return dbutil.WithTx(c.db, func(tx *sql.Tx) error {
		for _, fid := range subtree {
			sideTables := []string{
				`DELETE FROM track_artists WHERE track_id IN (SELECT id FROM tracks WHERE folder_id = ?)`,
				`DELETE FROM track_genres WHERE track_id IN (SELECT id FROM tracks WHERE folder_id = ?)`,
				`DELETE FROM track_meta WHERE track_id IN (SELECT id FROM tracks WHERE folder_id = ?)`,
				`DELETE FROM tracks WHERE folder_id = ?`,
				`DELETE FROM folders WHERE id = ?`,
			}
			for _, q := range sideTables {
				if _, err := tx.Exec(q, fid); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// folderSubtree returns id and all descendant folder ids, deepest last.
func (c *Catalog) folderSubtree(id int64) ([]int64, error) {
	result := []int64{id}
	frontier := []int64{id}
	for len(frontier) > 0 {
		var next []int64
		for _, fid := range frontier {
			rows, err := c.db.Query(`SELECT id FROM folders WHERE parent_id = ?`, fid)
			if err != nil {
				return nil, err
			}
			for rows.Next() {
				var child int64
				if err := rows.Scan(&child); err != nil {
					rows.Close()
					return nil, err
				}
				next = append(next, child)
			}
			if err := rows.Err(); err != nil {
				rows.Close()
				return nil, err
			}
			rows.Close()
		}
		result = append(result, next...)
		frontier = next
	}
	return result, nil
}
