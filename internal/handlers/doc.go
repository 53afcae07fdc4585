// Package handlers exposes the index over HTTP.
//
// It includes handlers for:
//   - Root folders, child folders and single folders
//   - All images and the images of one folder
//   - Index statistics
//   - Triggering a rescan and reading scan status
//   - Health, liveness and readiness probes, version and metrics
//
// Query endpoints go through the usecases package; errors are mapped to
// status codes by [writeError] (not found 404, invalid request 400).
package handlers
