package catalog

import (
	"database/sql"
	"hash/crc32"
	"os"
	"path/filepath"
	"strconv"
)

// resolveNamed returns the id of the row in table with the given name,
// inserting it if absent. table must be one of the dimension tables
// (albums, artists, genres).
func (c *Catalog) resolveNamed(table, name string) (int64, error) {
	sel, err := c.stmts.Get(`SELECT id FROM ` + table + ` WHERE name = ?`)
	if err != nil {
		return 0, err
	}
	var id int64
	err = sel.QueryRow(name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	ins, err := c.stmts.Get(`INSERT INTO ` + table + ` (name) VALUES (?)`)
	if err != nil {
		return 0, err
	}
	res, err := ins.Exec(name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ResolveAlbum returns (inserting if needed) the album id for name.
func (c *Catalog) ResolveAlbum(name string) (int64, error) {
	return c.resolveNamed("albums", name)
}

// ResolveArtist returns (inserting if needed) the artist id for name.
func (c *Catalog) ResolveArtist(name string) (int64, error) {
	return c.resolveNamed("artists", name)
}

// ResolveGenre returns (inserting if needed) the genre id for name.
func (c *Catalog) ResolveGenre(name string) (int64, error) {
	return c.resolveNamed("genres", name)
}

// ResolveMetaKey returns (inserting if needed) the meta key id.
func (c *Catalog) ResolveMetaKey(name string) (int64, error) {
	var id int64
	err := c.db.QueryRow(`SELECT id FROM meta_keys WHERE name = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	res, err := c.db.Exec(`INSERT INTO meta_keys (name) VALUES (?)`, name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ResolveMetaValue returns (inserting if needed) the meta value id for
// (key, content).
func (c *Catalog) ResolveMetaValue(keyID int64, content string) (int64, error) {
	var id int64
	err := c.db.QueryRow(
		`SELECT id FROM meta_values WHERE meta_key_id = ? AND content = ?`,
		keyID, content).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	res, err := c.db.Exec(
		`INSERT INTO meta_values (meta_key_id, content) VALUES (?, ?)`, keyID, content)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ResolveThumbnail stores cover art under thumbs/ named by its
// checksum and returns the thumbnail row id. Identical art across
// tracks shares one file and one row.
func (c *Catalog) ResolveThumbnail(data []byte) (int64, error) {
	checksum := int64(crc32.ChecksumIEEE(data))

	var id int64
	err := c.db.QueryRow(`SELECT id FROM thumbnails WHERE checksum = ?`, checksum).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	filename := strconv.FormatInt(checksum, 10) + ".jpg"
	fullPath := filepath.Join(c.ThumbsDir(), filename)
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return 0, err
	}

	res, err := c.db.Exec(
		`INSERT INTO thumbnails (filename, checksum) VALUES (?, ?)`, filename, checksum)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
