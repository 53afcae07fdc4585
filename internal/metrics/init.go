package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
func InitializeMetrics() {
	for _, status := range []string{"success", "error", "cancelled"} {
		ScanRunsTotal.WithLabelValues(status)
	}

	for _, entity := range []string{"folder", "image"} {
		for _, outcome := range []string{"inserted", "updated", "deleted", "unchanged", "skipped"} {
			ScanItemsTotal.WithLabelValues(entity, outcome)
		}
	}

	for _, outcome := range []string{"commit", "rollback"} {
		DBTransactionDuration.WithLabelValues(outcome)
	}

	for _, op := range []string{"stat", "open"} {
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemRetrySuccess.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
		FilesystemStaleErrors.WithLabelValues(op)
	}
}
