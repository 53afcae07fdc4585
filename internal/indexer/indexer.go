package indexer

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"aigen-index/internal/database"
	"aigen-index/internal/filesystem"
	"aigen-index/internal/logging"
	"aigen-index/internal/media"
	"aigen-index/internal/metrics"
	"aigen-index/internal/workers"
)

var (
	// ErrRootNotFound is returned when the scan root does not exist or is not
	// a directory. The store is not touched.
	ErrRootNotFound = errors.New("scan root not found")

	// ErrScanInProgress is returned by Scheduler.RunOnce while another scan
	// is running.
	ErrScanInProgress = errors.New("scan already in progress")
)

// Store is the part of the index store the scanner writes through.
type Store interface {
	UpsertFolder(ctx context.Context, path, parentID string) (*database.Folder, database.UpsertResult, error)
	UpsertImage(ctx context.Context, in database.ImageUpsert) (*database.Image, database.UpsertResult, error)
	DeleteFolder(ctx context.Context, id string) error
	DeleteImage(ctx context.Context, id string) error
	GetFolderByPath(ctx context.Context, path string) (*database.Folder, error)
	ListFolderSubtree(ctx context.Context, root string) ([]database.Folder, error)
	ListImageSubtree(ctx context.Context, root string) ([]database.Image, error)
}

// Extractor derives metadata from an image file.
type Extractor interface {
	Extract(path string) (*media.Metadata, error)
}

// Config configures an Indexer.
type Config struct {
	// SkipHidden skips files and directories starting with "."
	SkipHidden bool
	// Workers is the number of parallel extractions (0 = auto, I/O bound)
	Workers int
	// DecodeBound sizes the automatic pool for an extractor that fully
	// decodes every image
	DecodeBound bool
	// BatchSize is the number of images extracted before their upserts are
	// written
	BatchSize int
	Retry     filesystem.RetryConfig
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		SkipHidden: true,
		BatchSize:  64,
		Retry:      filesystem.DefaultRetryConfig(),
	}
}

// Indexer reconciles the index store with the filesystem.
type Indexer struct {
	store     Store
	extractor Extractor
	config    Config
	progress  *Progress
}

// New creates an Indexer over an explicitly owned store and extractor.
func New(store Store, extractor Extractor, config Config) *Indexer {
	if config.BatchSize < 1 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	return &Indexer{
		store:     store,
		extractor: extractor,
		config:    config,
		progress:  &Progress{},
	}
}

// Progress returns live counters for the scan in flight.
func (idx *Indexer) Progress() ProgressSnapshot {
	return idx.progress.Snapshot()
}

// scan holds the state of one Scan invocation.
type scan struct {
	*Indexer
	root    string
	summary *Summary
	snap    *snapshot

	storedFolders map[string]database.Folder
	storedImages  map[string]database.Image
	folderIDs     map[string]string // path -> id, for folders on disk
	failed        map[string]bool   // subtrees whose reconciliation was aborted
	protected     []string          // subtrees whose stored contents must not be deleted
}

// Scan reconciles the store with the tree rooted at root. Per-item failures
// are collected in the summary; the returned error is non-nil only when the
// scan could not run or was cancelled, in which case the summary still
// describes the work committed so far.
func (idx *Indexer) Scan(ctx context.Context, root string) (*Summary, error) {
	start := time.Now()
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve scan root: %w", err)
	}
	summary := newSummary(root, start)

	info, err := filesystem.StatWithRetry(root, idx.config.Retry)
	if err != nil || !info.IsDir() {
		metrics.ScanRunsTotal.WithLabelValues("error").Inc()
		if err == nil {
			err = errors.New("not a directory")
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrRootNotFound, root, err)
	}

	logging.Info("Starting scan of %s", root)
	idx.progress.begin(root, start)
	defer idx.progress.end()

	s := &scan{
		Indexer:   idx,
		root:      root,
		summary:   summary,
		folderIDs: make(map[string]string),
		failed:    make(map[string]bool),
	}
	err = s.run(ctx)

	summary.FinishedAt = time.Now()
	status := "success"
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		status = "cancelled"
	case err != nil:
		status = "error"
	}
	metrics.ScanRunsTotal.WithLabelValues(status).Inc()
	metrics.ScanDuration.Observe(summary.Duration().Seconds())
	metrics.ScanLastRunTimestamp.Set(float64(summary.FinishedAt.Unix()))

	logging.Info("Scan of %s %s in %v: folders +%d ~%d -%d, images +%d ~%d touched %d -%d, %d extraction errors, %d store errors",
		root, status, summary.Duration(),
		summary.FoldersInserted, summary.FoldersUpdated, summary.FoldersDeleted,
		summary.ImagesInserted, summary.ImagesUpdated, summary.ImagesTouched, summary.ImagesDeleted,
		len(summary.ExtractionErrors), len(summary.StoreErrors))

	return summary, err
}

func (s *scan) run(ctx context.Context) error {
	snap, err := walk(ctx, s.root, s.config)
	if err != nil {
		return err
	}
	s.snap = snap
	s.protected = snap.unreadable
	s.summary.SymlinksSkipped = append(s.summary.SymlinksSkipped, snap.symlinksSkipped...)
	s.progress.setTotals(len(snap.folders), len(snap.images))

	for _, path := range snap.unsupported {
		s.summary.ExtractionErrors = append(s.summary.ExtractionErrors,
			extractionItemError(path, &media.ExtractionError{Path: path, Kind: media.ErrUnsupportedFormat}))
	}

	if err := s.loadStored(ctx); err != nil {
		return err
	}

	steps := []func(context.Context) error{
		s.reconcileFolders,
		s.reconcileImages,
		s.deleteMissingImages,
		s.deleteMissingFolders,
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *scan) loadStored(ctx context.Context) error {
	folders, err := s.store.ListFolderSubtree(ctx, s.root)
	if err != nil {
		return fmt.Errorf("load stored folders: %w", err)
	}
	images, err := s.store.ListImageSubtree(ctx, s.root)
	if err != nil {
		return fmt.Errorf("load stored images: %w", err)
	}

	s.storedFolders = make(map[string]database.Folder, len(folders))
	for _, f := range folders {
		s.storedFolders[f.Path] = f
	}
	s.storedImages = make(map[string]database.Image, len(images))
	for _, img := range images {
		s.storedImages[img.Path] = img
	}
	return nil
}

// rootParentID returns the id of the stored folder that contains the scan
// root, so rescanning a subtree keeps it attached to its parent.
func (s *scan) rootParentID(ctx context.Context) (string, error) {
	parent := filepath.Dir(s.root)
	if parent == s.root {
		return "", nil
	}
	f, err := s.store.GetFolderByPath(ctx, parent)
	if errors.Is(err, database.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return f.ID, nil
}

// reconcileFolders upserts every folder on disk, parents first. A failed
// upsert aborts the folder's whole subtree.
func (s *scan) reconcileFolders(ctx context.Context) error {
	rootParent, err := s.rootParentID(ctx)
	if err != nil {
		return fmt.Errorf("look up parent of %s: %w", s.root, err)
	}

	for _, path := range s.snap.folders {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.underFailed(path) {
			s.skipFolder(path)
			continue
		}

		parentID := rootParent
		if path != s.root {
			parentID = s.folderIDs[filepath.Dir(path)]
		}

		if stored, ok := s.storedFolders[path]; ok && stored.ParentID == parentID {
			s.folderIDs[path] = stored.ID
			s.summary.FoldersUnchanged++
			metrics.ScanItemsTotal.WithLabelValues("folder", "unchanged").Inc()
			s.progress.folderDone()
			continue
		}

		folder, result, err := s.store.UpsertFolder(ctx, path, parentID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			s.storeFailure(path, "upsert_folder", err)
			s.failed[path] = true
			if path == s.root {
				return fmt.Errorf("upsert root folder: %w", err)
			}
			continue
		}

		s.folderIDs[path] = folder.ID
		switch result {
		case database.UpsertInserted:
			s.summary.FoldersInserted++
		case database.UpsertUpdated:
			s.summary.FoldersUpdated++
		default:
			s.summary.FoldersUnchanged++
		}
		metrics.ScanItemsTotal.WithLabelValues("folder", result.String()).Inc()
		s.progress.folderDone()
	}
	return nil
}

// reconcileImages extracts new and changed images in parallel batches and
// upserts them one at a time in path order.
func (s *scan) reconcileImages(ctx context.Context) error {
	paths := make([]string, 0, len(s.snap.images))
	for path := range s.snap.images {
		paths = append(paths, path)
	}
	slices.Sort(paths)

	var pending []string
	for _, path := range paths {
		stat := s.snap.images[path]
		stored, ok := s.storedImages[path]
		if ok && stored.ModTime.Equal(stat.modTime) && stored.Metadata.FileSize == stat.size &&
			stored.FolderID == s.folderIDs[filepath.Dir(path)] {
			s.summary.ImagesUnchanged++
			metrics.ScanItemsTotal.WithLabelValues("image", "unchanged").Inc()
			s.progress.imageDone()
			continue
		}
		pending = append(pending, path)
	}

	n := s.config.Workers
	switch {
	case n > 0:
	case s.config.DecodeBound:
		n = workers.ForMixed(16)
	default:
		n = workers.ForIO(16)
	}
	metrics.ScanExtractWorkers.Set(float64(n))

	type extracted struct {
		meta *media.Metadata
		err  error
	}

	for start := 0; start < len(pending); start += s.config.BatchSize {
		batch := pending[start:min(start+s.config.BatchSize, len(pending))]

		// Images under an aborted subtree are neither extracted nor written.
		var todo []string
		for _, path := range batch {
			if s.underFailed(path) {
				s.progress.imageDone()
				metrics.ScanItemsTotal.WithLabelValues("image", "skipped").Inc()
				continue
			}
			todo = append(todo, path)
		}

		results, err := workers.Map(ctx, n, todo, func(path string) extracted {
			meta, err := s.extractor.Extract(path)
			return extracted{meta: meta, err: err}
		})
		if err != nil {
			return err
		}

		for i, path := range todo {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.progress.imageDone()

			r := results[i]
			if r.err != nil {
				logging.Debug("Extraction failed for %s: %v", path, r.err)
				s.summary.ExtractionErrors = append(s.summary.ExtractionErrors, extractionItemError(path, r.err))
				continue
			}
			dir := filepath.Dir(path)
			if s.underFailed(dir) {
				metrics.ScanItemsTotal.WithLabelValues("image", "skipped").Inc()
				continue
			}

			_, result, err := s.store.UpsertImage(ctx, database.ImageUpsert{
				Path:     path,
				FolderID: s.folderIDs[dir],
				Metadata: r.meta,
				ModTime:  s.snap.images[path].modTime,
			})
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.storeFailure(path, "upsert_image", err)
				s.failed[dir] = true
				continue
			}

			switch result {
			case database.UpsertInserted:
				s.summary.ImagesInserted++
			case database.UpsertUpdated:
				s.summary.ImagesUpdated++
			case database.UpsertTouched:
				s.summary.ImagesTouched++
			}
			metrics.ScanItemsTotal.WithLabelValues("image", result.String()).Inc()
		}
	}
	return nil
}

// deleteMissingImages removes stored images that are no longer on disk.
func (s *scan) deleteMissingImages(ctx context.Context) error {
	var missing []database.Image
	for path, img := range s.storedImages {
		if _, ok := s.snap.images[path]; ok {
			continue
		}
		if s.isProtected(path) || s.underFailed(path) {
			continue
		}
		missing = append(missing, img)
	}
	slices.SortFunc(missing, func(a, b database.Image) int { return cmp.Compare(a.Path, b.Path) })

	for _, img := range missing {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.store.DeleteImage(ctx, img.ID)
		switch {
		case err == nil:
			s.summary.ImagesDeleted++
			metrics.ScanItemsTotal.WithLabelValues("image", "deleted").Inc()
		case errors.Is(err, database.ErrNotFound):
			// already gone
		default:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			s.storeFailure(img.Path, "delete_image", err)
			s.failed[filepath.Dir(img.Path)] = true
		}
	}
	return nil
}

// deleteMissingFolders removes stored folders that are no longer on disk,
// deepest first. Folders that still have children are skipped and reported.
func (s *scan) deleteMissingFolders(ctx context.Context) error {
	onDisk := make(map[string]bool, len(s.snap.folders))
	for _, path := range s.snap.folders {
		onDisk[path] = true
	}

	var missing []database.Folder
	for path, f := range s.storedFolders {
		if onDisk[path] || s.isProtected(path) || s.underFailed(path) {
			continue
		}
		missing = append(missing, f)
	}
	slices.SortFunc(missing, func(a, b database.Folder) int {
		if c := cmp.Compare(depth(b.Path), depth(a.Path)); c != 0 {
			return c
		}
		return cmp.Compare(a.Path, b.Path)
	})

	for _, f := range missing {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.store.DeleteFolder(ctx, f.ID)
		switch {
		case err == nil:
			s.summary.FoldersDeleted++
			metrics.ScanItemsTotal.WithLabelValues("folder", "deleted").Inc()
		case errors.Is(err, database.ErrNotFound):
			// already gone
		case errors.Is(err, database.ErrHasChildren):
			logging.Warn("Not deleting %s: it still has children", f.Path)
			s.skipFolder(f.Path)
		default:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			s.storeFailure(f.Path, "delete_folder", err)
		}
	}
	return nil
}

func (s *scan) storeFailure(path, operation string, err error) {
	logging.Error("Store %s failed for %s: %v", operation, path, err)
	metrics.ScanStoreErrors.Inc()
	s.summary.StoreErrors = append(s.summary.StoreErrors, storeItemError(path, operation, err))
}

func (s *scan) skipFolder(path string) {
	metrics.ScanItemsTotal.WithLabelValues("folder", "skipped").Inc()
	s.summary.SkippedFolders = append(s.summary.SkippedFolders, path)
}

// underFailed reports whether path is inside a subtree whose reconciliation
// was aborted.
func (s *scan) underFailed(path string) bool {
	for p := path; ; p = filepath.Dir(p) {
		if s.failed[p] {
			return true
		}
		if p == s.root || filepath.Dir(p) == p {
			return false
		}
	}
}

// isProtected reports whether path lies in a directory the walk could not
// read, so its absence from the snapshot proves nothing.
func (s *scan) isProtected(path string) bool {
	for _, dir := range s.protected {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func depth(path string) int {
	return strings.Count(path, string(filepath.Separator))
}
