// Package startup handles configuration loading and startup/shutdown
// logging.
//
// # Configuration
//
// [Load] layers three sources, later ones winning:
//
//  1. built-in defaults ([DefaultConfig])
//  2. a TOML file named by the --config flag or CONFIG_FILE
//  3. environment variables
//
// Supported keys (TOML name / environment variable):
//
//   - database_dir / DATABASE_DIR: directory holding index.db (default: /database)
//   - scan_roots / SCAN_ROOTS: directories to index; the variable is
//     separated by the OS path list separator
//   - scan_interval / SCAN_INTERVAL: rescan interval as a Go duration, "0" or
//     "off" to disable (default: 30m)
//   - poll_interval / POLL_INTERVAL: how often the serve command checks each
//     root and its top-level subdirectories for changes and rescans early,
//     "0" or "off" to disable (default: 30s)
//   - port / PORT: HTTP server port (default: 8080)
//   - metrics_enabled / METRICS_ENABLED: expose /metrics (default: true)
//   - extract_workers / EXTRACT_WORKERS: parallel extractions, 0 = auto
//   - verify_decode / VERIFY_DECODE: fully decode every image (default: false)
//   - skip_hidden / SKIP_HIDDEN: skip dot files and directories (default: true)
//   - log_level / LOG_LEVEL: debug, info, warn or error (default: info)
//   - log_health_checks / LOG_HEALTH_CHECKS: log probe requests (default: true)
//
// Unknown TOML keys are rejected so typos do not silently fall back to
// defaults. MEMORY_LIMIT, MEMORY_RATIO and GOMEMLIMIT configure the Go soft
// memory limit via [ConfigureMemoryLimit].
//
// # Lifecycle Logging
//
// [PrintBanner], [LogSystemInfo], [LogConfig], [LogDatabaseInit],
// [LogIndexerInit], [LogHTTPRoutes] and [LogServerStarted] give the serve
// command a consistent startup log. [BeginShutdown] returns a [Shutdown]
// whose Step method runs and times each teardown step.
package startup
