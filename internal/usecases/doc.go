// Package usecases implements the read-only queries clients run against the
// index: root folders, all images, and the images of one folder.
//
// Each use case owns the store it reads from, calls exactly one store
// operation per Execute, and never returns a nil slice. Store errors pass
// through unchanged so callers can match them with errors.Is
// (database.ErrNotFound in particular).
package usecases
