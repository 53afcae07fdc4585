package handlers

import (
	"context"
	"sync"
	"time"

	"aigen-index/internal/database"
	"aigen-index/internal/indexer"
)

// =============================================================================
// Mock Store
// =============================================================================

type mockStore struct {
	folders  map[string]database.Folder
	images   []database.Image
	pingErr  error
	queryErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		folders: map[string]database.Folder{
			"root":  {ID: "root", Path: "/lib", Name: "lib"},
			"catA":  {ID: "catA", Path: "/lib/catA", ParentID: "root", Name: "catA"},
			"empty": {ID: "empty", Path: "/lib/empty", ParentID: "root", Name: "empty"},
		},
		images: []database.Image{
			{ID: "img1", Path: "/lib/catA/cat1.png", FolderID: "catA", Name: "cat1.png"},
		},
	}
}

func (m *mockStore) GetRootFolders(context.Context) ([]database.Folder, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	var roots []database.Folder
	for _, f := range m.folders {
		if f.ParentID == "" {
			roots = append(roots, f)
		}
	}
	return roots, nil
}

func (m *mockStore) GetFolder(_ context.Context, id string) (*database.Folder, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	f, ok := m.folders[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &f, nil
}

func (m *mockStore) GetChildFolders(_ context.Context, id string) ([]database.Folder, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if _, ok := m.folders[id]; !ok {
		return nil, database.ErrNotFound
	}
	children := []database.Folder{}
	for _, f := range m.folders {
		if f.ParentID == id {
			children = append(children, f)
		}
	}
	return children, nil
}

func (m *mockStore) GetAllImages(context.Context) ([]database.Image, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.images, nil
}

func (m *mockStore) GetImagesByFolderID(_ context.Context, folderID string) ([]database.Image, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if _, ok := m.folders[folderID]; !ok {
		return nil, database.ErrNotFound
	}
	var images []database.Image
	for _, img := range m.images {
		if img.FolderID == folderID {
			images = append(images, img)
		}
	}
	return images, nil
}

func (m *mockStore) Stats(context.Context) (database.Stats, error) {
	if m.queryErr != nil {
		return database.Stats{}, m.queryErr
	}
	return database.Stats{Folders: len(m.folders), RootFolders: 1, Images: len(m.images)}, nil
}

func (m *mockStore) Ping(context.Context) error {
	return m.pingErr
}

// =============================================================================
// Mock Scheduler
// =============================================================================

type mockScheduler struct {
	mu        sync.Mutex
	ready     bool
	scanning  bool
	lastError string
	triggers  int
}

func (m *mockScheduler) IsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

func (m *mockScheduler) IsScanning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scanning
}

func (m *mockScheduler) Trigger() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.triggers++
}

func (m *mockScheduler) Status() indexer.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	status := indexer.Status{
		Ready:     m.ready,
		Scanning:  m.scanning,
		Roots:     []string{"/lib"},
		StartTime: time.Now().Add(-time.Minute),
		Uptime:    "1m0s",
		LastError: m.lastError,
	}
	if m.ready {
		status.LastScanned = time.Now()
	}
	return status
}

func newTestHandlers() (*Handlers, *mockStore, *mockScheduler) {
	store := newMockStore()
	scheduler := &mockScheduler{ready: true}
	return New(store, scheduler), store, scheduler
}
