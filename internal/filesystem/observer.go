package filesystem

import "sync"

// Observer records retry metrics. The implementation lives in the metrics
// package so that filesystem does not import it.
type Observer interface {
	ObserveRetryAttempt(op string)
	ObserveRetrySuccess(op string)
	ObserveRetryFailure(op string)
	ObserveStaleError(op string)
}

var (
	observerMu      sync.RWMutex
	defaultObserver Observer
)

// SetObserver sets the package-level metrics observer.
// A nil observer disables recording, which is the default in tests.
func SetObserver(o Observer) {
	observerMu.Lock()
	defer observerMu.Unlock()
	defaultObserver = o
}

func observe() Observer {
	observerMu.RLock()
	defer observerMu.RUnlock()
	return defaultObserver
}
