/*
Package filesystem provides resilient filesystem operations with automatic retry logic
for NFS stale file handle errors.

Generated-image libraries frequently live on network shares. The scanner and the
metadata extractor go through StatWithRetry, ReadDirWithRetry and OpenWithRetry so
that a transient ESTALE (errno 116) does not turn into a spurious "missing" file,
which would otherwise make the scanner delete a record that still exists.

# Retry Behavior

The retry logic implements exponential backoff with the following defaults:
  - MaxRetries: 3 attempts
  - InitialBackoff: 50ms
  - MaxBackoff: 500ms

Only ESTALE triggers retries. All other errors fail immediately.

Metrics are recorded through an Observer installed with SetObserver; the metrics
package provides the Prometheus implementation.
*/
package filesystem
