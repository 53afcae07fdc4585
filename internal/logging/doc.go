// Package logging provides a simple leveled logging interface for the
// image indexer.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The level is read from the LOG_LEVEL environment variable (DEBUG=true
// forces debug) and can be overridden at runtime with SetLevel, which the
// CLI does for its --log-level flag.
package logging
