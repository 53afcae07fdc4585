package indexer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"aigen-index/internal/database"
	"aigen-index/internal/media"
)

// stepClock returns a clock that advances one second per call.
func stepClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func setupTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "db", "index.db"),
		database.WithClock(stepClock()))
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testConfig() Config {
	config := DefaultConfig()
	config.Workers = 2
	config.BatchSize = 3
	config.Retry.MaxRetries = 0
	return config
}

func newTestIndexer(t *testing.T, store Store) *Indexer {
	t.Helper()
	extractorConfig := media.DefaultExtractorConfig()
	extractorConfig.Retry.MaxRetries = 0
	return New(store, media.NewExtractor(extractorConfig), testConfig())
}

// pngBytes encodes a small PNG whose pixels depend on seed, so different
// seeds give different checksums.
func pngBytes(t *testing.T, seed uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: seed, G: uint8(x * 16), B: uint8(y * 16), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

// writeTree creates files under root. Keys are slash-separated relative
// paths; a nil value creates a directory.
func writeTree(t *testing.T, root string, files map[string][]byte) {
	t.Helper()
	for rel, data := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if data == nil {
			if err := os.MkdirAll(path, 0o755); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// libraryRoot returns an absolute, symlink-free temporary directory, so
// stored paths match the paths the test builds.
func libraryRoot(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	root := filepath.Join(dir, "lib")
	if err := os.Mkdir(root, 0o755); err != nil {
		t.Fatal(err)
	}
	return root
}

func mustScan(t *testing.T, idx *Indexer, root string) *Summary {
	t.Helper()
	summary, err := idx.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan(%s): %v", root, err)
	}
	return summary
}

func folderByPath(t *testing.T, db *database.Database, path string) *database.Folder {
	t.Helper()
	f, err := db.GetFolderByPath(context.Background(), path)
	if err != nil {
		t.Fatalf("GetFolderByPath(%s): %v", path, err)
	}
	return f
}

// assertIntegrity checks that every image's folder and every folder's
// parent resolve.
func assertIntegrity(t *testing.T, db *database.Database) {
	t.Helper()
	ctx := context.Background()

	images, err := db.GetAllImages(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, img := range images {
		if _, err := db.GetFolder(ctx, img.FolderID); err != nil {
			t.Errorf("image %s references missing folder %s: %v", img.Path, img.FolderID, err)
		}
	}

	roots, err := db.GetRootFolders(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, root := range roots {
		folders, err := db.ListFolderSubtree(ctx, root.Path)
		if err != nil {
			t.Fatal(err)
		}
		for _, f := range folders {
			if f.ParentID == "" {
				continue
			}
			if _, err := db.GetFolder(ctx, f.ParentID); err != nil {
				t.Errorf("folder %s references missing parent %s: %v", f.Path, f.ParentID, err)
			}
		}
	}
}

// failingStore wraps a store and fails writes for chosen paths.
type failingStore struct {
	Store
	failFolder map[string]bool
	failImage  map[string]bool
}

var errInjected = errors.New("injected store failure")

func (f *failingStore) UpsertFolder(ctx context.Context, path, parentID string) (*database.Folder, database.UpsertResult, error) {
	if f.failFolder[path] {
		return nil, database.UpsertUnchanged, errInjected
	}
	return f.Store.UpsertFolder(ctx, path, parentID)
}

func (f *failingStore) UpsertImage(ctx context.Context, in database.ImageUpsert) (*database.Image, database.UpsertResult, error) {
	if f.failImage[in.Path] {
		return nil, database.UpsertUnchanged, errInjected
	}
	return f.Store.UpsertImage(ctx, in)
}

// blockingExtractor blocks every extraction until release is closed.
type blockingExtractor struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingExtractor() *blockingExtractor {
	return &blockingExtractor{started: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingExtractor) Extract(path string) (*media.Metadata, error) {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return nil, &media.ExtractionError{Path: path, Kind: media.ErrIO}
}
