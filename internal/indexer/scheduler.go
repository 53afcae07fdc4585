package indexer

import (
	"context"
	"errors"
	"sync"
	"time"

	"aigen-index/internal/logging"
	"aigen-index/internal/metrics"
)

// Scheduler runs scans of the configured roots: once at start, then every
// interval, whenever Trigger is called, and whenever the poll check sees a
// root change. Scans never overlap.
type Scheduler struct {
	indexer      *Indexer
	roots        []string
	interval     time.Duration
	pollInterval time.Duration

	stopChan    chan struct{}
	stopOnce    sync.Once
	triggerChan chan struct{}
	wg          sync.WaitGroup
	cancel      context.CancelFunc

	stateMu   sync.Mutex
	lastState map[string]rootState

	mu              sync.Mutex
	scanning        bool
	initialComplete bool
	lastRun         time.Time
	lastSummaries   []*Summary
	lastError       error
	startTime       time.Time

	onScanComplete func()
}

// Status contains health check information.
type Status struct {
	Ready       bool             `json:"ready"`
	Scanning    bool             `json:"scanning"`
	Roots       []string         `json:"roots"`
	StartTime   time.Time        `json:"startTime"`
	Uptime      string           `json:"uptime"`
	LastScanned time.Time        `json:"lastScanned,omitzero"`
	LastError   string           `json:"lastError,omitempty"`
	LastResults []*Summary       `json:"lastResults,omitempty"`
	Progress    ProgressSnapshot `json:"progress"`
}

// NewScheduler creates a Scheduler. An interval of zero disables periodic
// rescans; Trigger still works.
func NewScheduler(idx *Indexer, roots []string, interval time.Duration) *Scheduler {
	return &Scheduler{
		indexer:     idx,
		roots:       append([]string(nil), roots...),
		interval:    interval,
		stopChan:    make(chan struct{}),
		triggerChan: make(chan struct{}, 1),
		lastState:   make(map[string]rootState),
		startTime:   time.Now(),
	}
}

// SetPollInterval enables lightweight change detection between scans: every
// interval each root and its top-level subdirectories are stat'ed and a
// rescan is queued when they differ from what the last scan saw. Zero
// disables it. Call before Start.
func (s *Scheduler) SetPollInterval(interval time.Duration) {
	if interval >= 0 {
		s.pollInterval = interval
	}
}

// SetOnScanComplete sets a callback invoked after every scan round.
func (s *Scheduler) SetOnScanComplete(callback func()) {
	s.onScanComplete = callback
}

// Start runs the initial scan in the background and begins the periodic loop.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		logging.Info("Starting initial scan in background...")
		s.runLogged(ctx, "initial scan")
		s.loop(ctx)
	}()
}

// Stop cancels any running scan and waits for the loop to exit. It is safe
// to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		if s.cancel != nil {
			s.cancel()
		}
	})
	s.wg.Wait()
}

// Trigger queues a rescan. Triggers that arrive while one is already queued
// are merged.
func (s *Scheduler) Trigger() {
	select {
	case s.triggerChan <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	var poll <-chan time.Time
	if s.pollInterval > 0 {
		logging.Info("Starting change detection polling (interval: %v)", s.pollInterval)
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		poll = ticker.C
	}

	for {
		select {
		case <-tick:
			logging.Debug("Periodic rescan triggered")
			s.runLogged(ctx, "periodic rescan")
		case <-s.triggerChan:
			logging.Debug("Manual rescan triggered")
			s.runLogged(ctx, "triggered rescan")
		case <-poll:
			if s.detectChanges() {
				logging.Info("File changes detected, triggering rescan")
				s.runLogged(ctx, "change-triggered rescan")
			}
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) runLogged(ctx context.Context, what string) {
	if _, err := s.RunOnce(ctx); err != nil {
		if errors.Is(err, ErrScanInProgress) {
			logging.Info("Scan already in progress, skipping %s", what)
			return
		}
		logging.Error("%s failed: %v", what, err)
	}
}

// RunOnce scans every root in order and returns their summaries. It fails
// with ErrScanInProgress if another scan is running. A failing root does not
// stop the others; all failures are joined in the returned error.
func (s *Scheduler) RunOnce(ctx context.Context) ([]*Summary, error) {
	if !s.tryStartScanning() {
		return nil, ErrScanInProgress
	}
	metrics.ScanIsRunning.Set(1)
	defer metrics.ScanIsRunning.Set(0)

	var (
		summaries []*Summary
		errs      []error
	)
	for _, root := range s.roots {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		s.rememberRoot(root)
		summary, err := s.indexer.Scan(ctx, root)
		if summary != nil {
			summaries = append(summaries, summary)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	err := errors.Join(errs...)

	s.finishScanning(summaries, err)
	if s.onScanComplete != nil {
		s.onScanComplete()
	}
	return summaries, err
}

// tryStartScanning returns false if a scan is already in progress.
func (s *Scheduler) tryStartScanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scanning {
		return false
	}
	s.scanning = true
	return true
}

func (s *Scheduler) finishScanning(summaries []*Summary, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scanning = false
	s.initialComplete = true
	s.lastRun = time.Now()
	s.lastSummaries = summaries
	s.lastError = err
}

// IsScanning returns whether a scan is currently in progress.
func (s *Scheduler) IsScanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanning
}

// IsReady returns true once the first scan round has finished.
func (s *Scheduler) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialComplete
}

// Status returns detailed health information.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		Ready:       s.initialComplete,
		Scanning:    s.scanning,
		Roots:       s.roots,
		StartTime:   s.startTime,
		Uptime:      time.Since(s.startTime).Round(time.Second).String(),
		LastScanned: s.lastRun,
		LastResults: s.lastSummaries,
		Progress:    s.indexer.Progress(),
	}
	if s.lastError != nil {
		status.LastError = s.lastError.Error()
	}
	return status
}
