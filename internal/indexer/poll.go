package indexer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"aigen-index/internal/logging"
	"aigen-index/internal/metrics"
)

// rootState is what change detection remembers about a scan root: the
// root's modification time, its top-level entry count and the modification
// time of each top-level subdirectory. Deeper changes are only noticed once
// they bubble up to one of these, or at the next periodic rescan.
type rootState struct {
	modTime time.Time
	entries int
	subdirs map[string]time.Time
}

// readRootState stats root and its top-level subdirectories. It never
// recurses, so it stays cheap on network filesystems.
func readRootState(root string, skipHidden bool) (rootState, error) {
	info, err := os.Stat(root)
	if err != nil {
		return rootState{}, fmt.Errorf("failed to stat scan root: %w", err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return rootState{}, fmt.Errorf("failed to read scan root: %w", err)
	}

	state := rootState{modTime: info.ModTime(), subdirs: make(map[string]time.Time)}
	for _, entry := range entries {
		if skipHidden && strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		state.entries++
		if !entry.IsDir() {
			continue
		}
		if sub, err := os.Stat(filepath.Join(root, entry.Name())); err == nil {
			state.subdirs[entry.Name()] = sub.ModTime()
		}
	}
	return state, nil
}

// diff describes the first difference between the remembered state and
// now, or returns "" when they match.
func (last rootState) diff(now rootState) string {
	if !now.modTime.Equal(last.modTime) {
		return fmt.Sprintf("root modified: %v -> %v", last.modTime, now.modTime)
	}
	if now.entries != last.entries {
		return fmt.Sprintf("top-level count changed: %d -> %d", last.entries, now.entries)
	}
	for name, modTime := range now.subdirs {
		lastMod, ok := last.subdirs[name]
		if !ok {
			return "new subdirectory: " + name
		}
		if !modTime.Equal(lastMod) {
			return fmt.Sprintf("subdirectory %s modified: %v -> %v", name, lastMod, modTime)
		}
	}
	return ""
}

// rememberRoot records the state of root just before it is scanned, so
// anything that changes while the scan runs is seen by the next check.
func (s *Scheduler) rememberRoot(root string) {
	state, err := readRootState(root, s.indexer.config.SkipHidden)
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if err != nil {
		// Forget the root; the next check reports it changed once it is
		// readable again.
		delete(s.lastState, root)
		return
	}
	s.lastState[root] = state
}

// detectChanges reports whether any root differs from its remembered state.
// Roots that cannot be read are logged and skipped.
func (s *Scheduler) detectChanges() bool {
	start := time.Now()
	defer func() {
		metrics.PollDuration.Observe(time.Since(start).Seconds())
		metrics.PollChecksTotal.Inc()
	}()

	for _, root := range s.roots {
		now, err := readRootState(root, s.indexer.config.SkipHidden)
		if err != nil {
			logging.Warn("Change detection skipped %s: %v", root, err)
			continue
		}

		s.stateMu.Lock()
		last, known := s.lastState[root]
		s.stateMu.Unlock()

		reason := "not scanned yet"
		if known {
			reason = last.diff(now)
		}
		if reason != "" {
			logging.Debug("Change detected under %s: %s", root, reason)
			metrics.PollChangesDetected.Inc()
			return true
		}
	}
	return false
}
