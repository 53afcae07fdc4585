// Package workers sizes and runs the bounded goroutine pools used for
// metadata extraction.
//
// Count and its helpers derive a worker count from GOMAXPROCS, which Go sets
// from the container CPU quota. Map fans a slice out to a fixed number of
// goroutines and collects results in input order, so callers that need a
// deterministic write order can parallelise the slow part and still apply
// results sequentially.
package workers
