// Package indexer reconciles the index store with the filesystem.
//
// A scan of a root directory runs in three phases:
//   - Enumerate: walk the tree, following symlinked directories once per
//     real path so cycles are skipped. Hidden entries are ignored.
//   - Diff: compare what is on disk with the store's records for the same
//     subtree. Images whose size and modification time match are unchanged
//     and cost nothing.
//   - Reconcile: upsert folders parents-first, extract and upsert new or
//     changed images, delete missing images, then delete missing folders
//     deepest-first.
//
// Extraction runs in parallel; store writes are issued one at a time. Per-item
// failures are reported in the Summary and never abort the scan. A store
// failure aborts only the affected subtree.
//
// The Scheduler wraps an Indexer with an initial scan, periodic rescans and
// on-demand triggers, and exposes status for health checks.
package indexer
