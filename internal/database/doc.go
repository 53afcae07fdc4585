// Package database is the index store: a SQLite database holding the
// folder forest and the image records found by the scanner.
//
// Every write runs in its own transaction, and writes are serialized by the
// store; reads run concurrently under WAL. The schema is versioned with
// embedded golang-migrate migrations, applied by New.
//
// Referential rules are enforced both by foreign keys and by explicit
// checks that return ErrIntegrityViolation or ErrHasChildren, so a folder
// is never deleted out from under its children and never becomes its own
// ancestor.
package database
