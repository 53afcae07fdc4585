// Package main provides the aigen-index command.
//
// aigen-index keeps a SQLite index of folders of generated images. Each image
// record carries the dimensions, format and checksum read from the file, plus
// any generation parameters (prompt, sampler, seed, ComfyUI workflow)
// embedded in its text chunks or EXIF comment.
//
// # Commands
//
//   - init: create the database or migrate it to the current schema
//   - scan [root...]: reconcile the index with directory trees on disk
//   - folders [--parent ID]: list root folders or the children of one folder
//   - images [--folder ID]: list all images or those directly in one folder
//   - stats: index totals by format
//   - vacuum: compact the database file
//   - serve: HTTP query API with periodic rescans of the configured roots
//   - version: build information
//
// Output is JSON when stdout is not a terminal or --json is given, and an
// aligned table otherwise.
//
// # Configuration
//
// Every command reads its configuration through [aigen-index/internal/startup]:
// defaults, then the TOML file named by --config or CONFIG_FILE, then
// environment variables such as DATABASE_DIR and SCAN_ROOTS. --log-level
// overrides LOG_LEVEL.
//
// # Serve Lifecycle
//
//  1. Memory configuration: the Go memory limit from MEMORY_LIMIT unless
//     GOMEMLIMIT is set
//  2. Database initialization and migration
//  3. Scheduler start: an initial scan of every root in the background, then
//     rescans every SCAN_INTERVAL, on POST /api/scan and whenever the
//     POLL_INTERVAL check sees a root or top-level subdirectory change
//  4. Metrics collector refreshing the index gauges every minute
//  5. HTTP server with access logging, gzip and request metrics
//
// On SIGINT or SIGTERM the server stops accepting requests, the running scan
// is cancelled (work already committed stays committed) and the database is
// closed.
package main
