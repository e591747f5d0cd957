// Package catalog is the embedded relational store holding all
// persisted library entities: paths, folders, tracks, dimension
// tables, generic metadata and playlists.
package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	dbutil "github.com/llehouerou/chorus/internal/db"
)

const (
	dbFileName   = "musik.db"
	thumbsDir    = "thumbs"
	defaultCache = 4096 // KB
)

// Catalog wraps the library database connection.
//
// The store is single-writer: the indexer holds the writer lock for the
// duration of a scan, and the metadata proxy takes it per mutation.
// Readers may run concurrently (WAL mode).
type Catalog struct {
	db         *sql.DB
	stmts      *dbutil.StatementCache
	libraryDir string

	writerMu sync.Mutex
}

// Open opens (creating if necessary) the catalog under libraryDir.
// cacheSizeKB tunes the sqlite page cache; 0 uses the default.
func Open(libraryDir string, cacheSizeKB int) (*Catalog, error) {
	if err := os.MkdirAll(libraryDir, 0o755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(libraryDir, thumbsDir), 0o755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(libraryDir, dbFileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if cacheSizeKB <= 0 {
		cacheSizeKB = defaultCache
	}

	// Configure SQLite for concurrent access
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",   // Better concurrent read/write
		"PRAGMA busy_timeout = 5000",  // Wait up to 5s for locks
		"PRAGMA synchronous = NORMAL", // Good balance of safety/speed with WAL
		fmt.Sprintf("PRAGMA cache_size = -%d", cacheSizeKB),
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{
		db:         db,
		stmts:      dbutil.NewStatementCache(db),
		libraryDir: libraryDir,
	}, nil
}

// Close finalizes cached statements and closes the connection.
func (c *Catalog) Close() error {
	_ = c.stmts.Close()
	return c.db.Close()
}

// DB exposes the underlying connection for query helpers.
func (c *Catalog) DB() *sql.DB {
	return c.db
}

// Statements returns the connection-scoped prepared statement cache.
func (c *Catalog) Statements() *dbutil.StatementCache {
	return c.stmts
}

// LibraryDir returns the directory holding the database and thumbs.
func (c *Catalog) LibraryDir() string {
	return c.libraryDir
}

// ThumbsDir returns the cover art directory.
func (c *Catalog) ThumbsDir() string {
	return filepath.Join(c.libraryDir, thumbsDir)
}

// LockWriter acquires the single-writer lock.
func (c *Catalog) LockWriter() {
	c.writerMu.Lock()
}

// UnlockWriter releases the single-writer lock.
func (c *Catalog) UnlockWriter() {
	c.writerMu.Unlock()
}

// Analyze refreshes the query planner statistics.
func (c *Catalog) Analyze() error {
	_, err := c.db.Exec("ANALYZE")
	return err
}

// Vacuum compacts the database file.
func (c *Catalog) Vacuum() error {
	_, err := c.db.Exec("VACUUM")
	return err
}

// LastInsertedID returns the rowid of the most recent insert on the
// given result.
func LastInsertedID(res sql.Result) int64 {
	id, _ := res.LastInsertId()
	return id
}
