package db

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

// WithTx executes fn within a transaction.
// It handles Begin, Rollback on error, and Commit on success.
func WithTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// ScopedTx is a transaction that commits on Close unless cancelled.
// Long batch jobs call CommitAndRestart to bound transaction size
// without giving up the scope.
type ScopedTx struct {
	db        *sql.DB
	tx        *sql.Tx
	cancelled bool
}

// Begin opens a scoped transaction on db.
func Begin(db *sql.DB) (*ScopedTx, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	return &ScopedTx{db: db, tx: tx}, nil
}

// Tx returns the underlying transaction for statement execution.
func (s *ScopedTx) Tx() *sql.Tx {
	return s.tx
}

// Cancel marks the transaction for rollback at Close.
func (s *ScopedTx) Cancel() {
	s.cancelled = true
}

// CommitAndRestart commits the current transaction and immediately
// begins a new one, keeping the scope open.
func (s *ScopedTx) CommitAndRestart() error {
	if err := s.tx.Commit(); err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	s.tx = tx
	return nil
}

// Close commits the transaction, or rolls it back when cancelled.
func (s *ScopedTx) Close() error {
	if s.cancelled {
		return s.tx.Rollback()
	}
	return s.tx.Commit()
}

const (
	retryAttempts  = 5
	retryBaseDelay = 10 * time.Millisecond
)

// Retry runs fn, retrying with exponential backoff when the database
// reports it is busy or locked. Other errors return immediately.
func Retry(fn func() error) error {
	var err error
	delay := retryBaseDelay
	for range retryAttempts {
		err = fn()
		if err == nil || !isBusy(err) {
			return err
		}
		time.Sleep(delay)
		delay *= 2
	}
	return err
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sql.ErrTxDone) {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// NullInt64ToPtr converts a sql.NullInt64 to *int64.
// Returns nil if the value is not valid.
func NullInt64ToPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	return &n.Int64
}

// NullInt64Value returns the int64 value or 0 if not valid.
func NullInt64Value(n sql.NullInt64) int64 {
	if !n.Valid {
		return 0
	}
	return n.Int64
}

// NullStringValue returns the string value or empty string if not valid.
func NullStringValue(n sql.NullString) string {
	if !n.Valid {
		return ""
	}
	return n.String
}
