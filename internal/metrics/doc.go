// Package metrics declares the Prometheus collectors for the image indexer.
//
// Metric families:
//   - aigen_index_http_*: request counts, durations, in-flight gauge
//   - aigen_index_db_*: index store operations and write transactions
//   - aigen_index_scan_*: scan runs, reconciled items, store failures
//   - aigen_index_poll_*: change detection checks between scans
//   - aigen_index_extraction_*: metadata extraction results and timings
//   - aigen_index_folders_total / aigen_index_images_total: index contents,
//     refreshed by Collector
//   - aigen_index_filesystem_*: stale file handle retries
//
// All collectors register with the default registry through promauto, so
// promhttp.Handler() exposes them without further wiring.
package metrics
