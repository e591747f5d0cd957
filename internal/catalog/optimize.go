package catalog

import (
	dbutil "github.com/llehouerou/chorus/internal/db"
)

const optimizeBatchSize = 1000

// OptimizeDimension recomputes the dense sort_order column of a
// dimension table by lowercased, trimmed name ascending.
func (c *Catalog) OptimizeDimension(table string, cancelled func() bool) error {
	rows, err := c.db.Query(
		`SELECT id FROM ` + table + ` ORDER BY lower(trim(name)) ASC`)
	if err != nil {
		return err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	tx, err := dbutil.Begin(c.db)
	if err != nil {
		return err
	}
	defer tx.Close() //nolint:errcheck // commit errors surface below

	for order, id := range ids {
		if cancelled != nil && cancelled() {
			tx.Cancel()
			return nil
		}
		if _, err := tx.Tx().Exec(
			`UPDATE `+table+` SET sort_order = ? WHERE id = ?`, order, id); err != nil {
			tx.Cancel()
			return err
		}
	}
	return tx.Close()
}

// OptimizeMetaValues recomputes sort_order on meta_values by
// lowercased, trimmed content ascending.
func (c *Catalog) OptimizeMetaValues(cancelled func() bool) error {
	rows, err := c.db.Query(`SELECT id FROM meta_values ORDER BY lower(trim(content)) ASC`)
	if err != nil {
		return err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	tx, err := dbutil.Begin(c.db)
	if err != nil {
		return err
	}
	defer tx.Close() //nolint:errcheck

	for order, id := range ids {
		if cancelled != nil && cancelled() {
			tx.Cancel()
			return nil
		}
		if _, err := tx.Tx().Exec(
			`UPDATE meta_values SET sort_order = ? WHERE id = ?`, order, id); err != nil {
			tx.Cancel()
			return err
		}
	}
	return tx.Close()
}

// OptimizeTracks recomputes the dense track sort_order by
// (visual artist order, album order, track number, folder relative
// path, filename). The batch commits every 1000 rows so a long
// optimize does not hold one giant transaction.
func (c *Catalog) OptimizeTracks(cancelled func() bool) error {
	rows, err := c.db.Query(`
		SELECT t.id FROM tracks t
		LEFT JOIN artists ar ON t.visual_artist_id = ar.id
		LEFT JOIN albums al ON t.album_id = al.id
		LEFT JOIN folders f ON t.folder_id = f.id
		ORDER BY ar.sort_order, al.sort_order, t.track_num, f.relative_path, t.filename
	`)
	if err != nil {
		return err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	tx, err := dbutil.Begin(c.db)
	if err != nil {
		return err
	}
	defer tx.Close() //nolint:errcheck

	for order, id := range ids {
		if cancelled != nil && cancelled() {
			tx.Cancel()
			return nil
		}
		if _, err := tx.Tx().Exec(
			`UPDATE tracks SET sort_order = ? WHERE id = ?`, order, id); err != nil {
			tx.Cancel()
			return err
		}
		if order > 0 && order%optimizeBatchSize == 0 {
			if err := tx.CommitAndRestart(); err != nil {
				return err
			}
		}
	}
	return tx.Close()
}
