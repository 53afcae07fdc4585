package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aigen_index_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aigen_index_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aigen_index_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aigen_index_db_queries_total",
			Help: "Total number of index store operations",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aigen_index_db_query_duration_seconds",
			Help:    "Index store operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aigen_index_db_transaction_duration_seconds",
			Help:    "Write transaction duration in seconds, including time spent waiting for the writer lock",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"outcome"}, // "commit", "rollback"
	)

	DBWriteConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aigen_index_db_write_conflicts_total",
			Help: "Write transactions rejected because the database was busy or locked",
		},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aigen_index_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Scanner metrics
var (
	ScanRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aigen_index_scan_runs_total",
			Help: "Total number of scan invocations",
		},
		[]string{"status"}, // "success", "error", "cancelled"
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aigen_index_scan_duration_seconds",
			Help:    "Duration of a full scan in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		},
	)

	ScanLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aigen_index_scan_last_run_timestamp",
			Help: "Unix timestamp of the last finished scan",
		},
	)

	ScanIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aigen_index_scan_running",
			Help: "Whether a scan is currently running (1 = running, 0 = idle)",
		},
	)

	ScanItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aigen_index_scan_items_total",
			Help: "Items reconciled by the scanner, by entity and outcome",
		},
		[]string{"entity", "outcome"}, // entity: folder|image; outcome: inserted|updated|deleted|unchanged|skipped
	)

	ScanStoreErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aigen_index_scan_store_errors_total",
			Help: "Store write failures during reconciliation",
		},
	)

	ScanSymlinkCyclesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aigen_index_scan_symlink_cycles_skipped_total",
			Help: "Directories skipped because their real path was already visited",
		},
	)

	ScanExtractWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aigen_index_scan_extract_workers",
			Help: "Number of metadata extraction workers used by the last scan",
		},
	)

	PollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aigen_index_poll_duration_seconds",
			Help:    "Duration of one change detection check over all scan roots",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	PollChecksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aigen_index_poll_checks_total",
			Help: "Change detection checks run between scans",
		},
	)

	PollChangesDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aigen_index_poll_changes_detected_total",
			Help: "Change detection checks that found a change and queued a rescan",
		},
	)
)

// Extraction metrics
var (
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aigen_index_extractions_total",
			Help: "Metadata extractions by format and result",
		},
		[]string{"format", "result"}, // result: success|unsupported|corrupt|io
	)

	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aigen_index_extraction_duration_seconds",
			Help:    "Metadata extraction duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"format"},
	)

	ExtractionBytesRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aigen_index_extraction_bytes_read_total",
			Help: "Bytes read by the metadata extractor",
		},
	)
)

// Index contents
var (
	IndexFoldersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aigen_index_folders_total",
			Help: "Folder records in the index",
		},
	)

	IndexImagesTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "aigen_index_images_total",
			Help: "Image records in the index, by format",
		},
		[]string{"format"},
	)

	IndexRootFoldersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aigen_index_root_folders_total",
			Help: "Root folder records in the index",
		},
	)
)

// Filesystem metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aigen_index_filesystem_retry_attempts_total",
			Help: "Filesystem operations retried after a stale file handle",
		},
		[]string{"operation"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aigen_index_filesystem_retry_success_total",
			Help: "Filesystem operations that succeeded after at least one retry",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aigen_index_filesystem_retry_failures_total",
			Help: "Filesystem operations that failed after exhausting retries",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aigen_index_filesystem_stale_errors_total",
			Help: "ESTALE errors observed",
		},
		[]string{"operation"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "aigen_index_app_info",
			Help: "Application build information",
		},
		[]string{"version", "commit", "go_version"},
	)
)
