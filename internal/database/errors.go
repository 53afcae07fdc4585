package database

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"aigen-index/internal/metrics"
)

var (
	// ErrNotFound is returned when a referenced id or path does not exist.
	ErrNotFound = errors.New("not found")

	// ErrHasChildren is returned when deleting a folder that still has
	// subfolders or images.
	ErrHasChildren = errors.New("folder has children")

	// ErrIntegrityViolation is returned when a write would orphan a record or
	// create a folder cycle.
	ErrIntegrityViolation = errors.New("integrity violation")

	// ErrWriteConflict is returned when SQLite reports the database busy or
	// locked by another writer.
	ErrWriteConflict = errors.New("write conflict")
)

// classifyError maps SQLite result codes onto the package's sentinel errors.
// Errors that are already classified, or not from SQLite, pass through.
func classifyError(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}

	switch {
	case sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked:
		metrics.DBWriteConflicts.Inc()
		return fmt.Errorf("%w: %w", ErrWriteConflict, err)
	case sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey:
		return fmt.Errorf("%w: %w", ErrIntegrityViolation, err)
	default:
		return err
	}
}
