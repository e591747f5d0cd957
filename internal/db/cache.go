package db

import (
	"database/sql"
	"sync"
)

// StatementCache caches prepared statements keyed by SQL text,
// scoped to one connection.
type StatementCache struct {
	db    *sql.DB
	mu    sync.Mutex
	stmts map[string]*sql.Stmt
}

// NewStatementCache creates a cache bound to db.
func NewStatementCache(db *sql.DB) *StatementCache {
	return &StatementCache{
		db:    db,
		stmts: make(map[string]*sql.Stmt),
	}
}

// Get returns the prepared statement for query, preparing it on first use.
func (c *StatementCache) Get(query string) (*sql.Stmt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if stmt, ok := c.stmts[query]; ok {
		return stmt, nil
	}
	stmt, err := c.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	c.stmts[query] = stmt
	return stmt, nil
}

// Close finalizes all cached statements.
func (c *StatementCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for _, stmt := range c.stmts {
		if err := stmt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.stmts = make(map[string]*sql.Stmt)
	return firstErr
}
