package indexer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"aigen-index/internal/filesystem"
	"aigen-index/internal/logging"
	"aigen-index/internal/mediatypes"
	"aigen-index/internal/metrics"
)

// fileStat is the cheap change-detection key for an image file.
type fileStat struct {
	size    int64
	modTime time.Time
}

// snapshot is what one walk found under a root.
type snapshot struct {
	// folders holds every directory path, root included, sorted so that a
	// parent always precedes its children.
	folders []string
	images  map[string]fileStat
	// unsupported holds regular files without an image extension.
	unsupported []string
	// unreadable holds directories whose listing failed. Their stored
	// contents must not be treated as missing.
	unreadable []string
	// symlinksSkipped holds directory paths whose real path was already
	// visited (cycles and duplicate links).
	symlinksSkipped []string
}

type walker struct {
	config  Config
	visited map[string]string // real path -> first path it was seen at
	snap    *snapshot
}

// walk enumerates root. Symlinked directories are followed once per real
// path; hidden entries are skipped when configured.
func walk(ctx context.Context, root string, config Config) (*snapshot, error) {
	w := &walker{
		config:  config,
		visited: make(map[string]string),
		snap:    &snapshot{images: make(map[string]fileStat)},
	}

	realPath, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, err
	}
	w.visited[realPath] = root
	w.snap.folders = append(w.snap.folders, root)

	if err := w.walkDir(ctx, root); err != nil {
		return w.snap, err
	}
	return w.snap, nil
}

func (w *walker) walkDir(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := filesystem.ReadDirWithRetry(dir, w.config.Retry)
	if err != nil {
		logging.Warn("Error reading directory %s: %v", dir, err)
		w.snap.unreadable = append(w.snap.unreadable, dir)
		return nil
	}

	for _, entry := range entries {
		name := entry.Name()
		if w.config.SkipHidden && strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)

		info, err := w.entryInfo(path, entry)
		if err != nil {
			logging.Debug("Skipping %s: %v", path, err)
			continue
		}

		switch {
		case info.IsDir():
			if !w.enterDir(path) {
				continue
			}
			w.snap.folders = append(w.snap.folders, path)
			if err := w.walkDir(ctx, path); err != nil {
				return err
			}
		case info.Mode().IsRegular():
			if mediatypes.IsImagePath(name) {
				w.snap.images[path] = fileStat{size: info.Size(), modTime: info.ModTime()}
			} else {
				w.snap.unsupported = append(w.snap.unsupported, path)
			}
		}
	}
	return nil
}

// entryInfo returns file info for an entry, following symlinks.
func (w *walker) entryInfo(path string, entry fs.DirEntry) (os.FileInfo, error) {
	if entry.Type()&fs.ModeSymlink != 0 {
		return filesystem.StatWithRetry(path, w.config.Retry)
	}
	return entry.Info()
}

// enterDir reports whether the directory at path has not been visited under
// another path, recording it if so.
func (w *walker) enterDir(path string) bool {
	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		logging.Warn("Cannot resolve %s: %v", path, err)
		w.snap.unreadable = append(w.snap.unreadable, path)
		return false
	}
	if first, seen := w.visited[realPath]; seen {
		logging.Info("Skipping %s: same directory as %s (symlink cycle or duplicate link)", path, first)
		metrics.ScanSymlinkCyclesSkipped.Inc()
		w.snap.symlinksSkipped = append(w.snap.symlinksSkipped, path)
		return false
	}
	w.visited[realPath] = path
	return true
}
