package usecases

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"aigen-index/internal/database"
	"aigen-index/internal/media"
)

// mockStore implements FolderReader and ImageReader with optional hooks and
// counts calls.
type mockStore struct {
	rootFoldersFn func(ctx context.Context) ([]database.Folder, error)
	allImagesFn   func(ctx context.Context) ([]database.Image, error)
	byFolderFn    func(ctx context.Context, folderID string) ([]database.Image, error)
	calls         int
}

func (m *mockStore) GetRootFolders(ctx context.Context) ([]database.Folder, error) {
	m.calls++
	if m.rootFoldersFn != nil {
		return m.rootFoldersFn(ctx)
	}
	return nil, nil
}

func (m *mockStore) GetAllImages(ctx context.Context) ([]database.Image, error) {
	m.calls++
	if m.allImagesFn != nil {
		return m.allImagesFn(ctx)
	}
	return nil, nil
}

func (m *mockStore) GetImagesByFolderID(ctx context.Context, folderID string) ([]database.Image, error) {
	m.calls++
	if m.byFolderFn != nil {
		return m.byFolderFn(ctx, folderID)
	}
	return nil, nil
}

var errStore = errors.New("store unavailable")

func TestGetRootFolders(t *testing.T) {
	t.Run("returns store result", func(t *testing.T) {
		store := &mockStore{rootFoldersFn: func(context.Context) ([]database.Folder, error) {
			return []database.Folder{{ID: "1", Path: "/lib", Name: "lib"}}, nil
		}}
		got, err := NewGetRootFolders(store).Execute(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].Path != "/lib" || store.calls != 1 {
			t.Errorf("got %+v after %d calls", got, store.calls)
		}
	})

	t.Run("nil becomes empty", func(t *testing.T) {
		got, err := NewGetRootFolders(&mockStore{}).Execute(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("got %#v, want empty non-nil slice", got)
		}
	})

	t.Run("store error passes through", func(t *testing.T) {
		store := &mockStore{rootFoldersFn: func(context.Context) ([]database.Folder, error) {
			return nil, errStore
		}}
		if _, err := NewGetRootFolders(store).Execute(context.Background()); !errors.Is(err, errStore) {
			t.Errorf("err = %v, want %v", err, errStore)
		}
	})
}

func TestGetAllImages(t *testing.T) {
	got, err := NewGetAllImages(&mockStore{}).Execute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Error("got nil slice")
	}

	store := &mockStore{allImagesFn: func(context.Context) ([]database.Image, error) {
		return nil, errStore
	}}
	if _, err := NewGetAllImages(store).Execute(context.Background()); !errors.Is(err, errStore) {
		t.Errorf("err = %v, want %v", err, errStore)
	}
}

func TestGetImagesByFolderID(t *testing.T) {
	tests := []struct {
		name      string
		folderID  string
		storeErr  error
		wantErr   error
		wantCalls int
	}{
		{name: "blank id", folderID: "", wantErr: ErrInvalidRequest, wantCalls: 0},
		{name: "whitespace id", folderID: "  \t", wantErr: ErrInvalidRequest, wantCalls: 0},
		{name: "unknown folder", folderID: "nope", storeErr: database.ErrNotFound, wantErr: database.ErrNotFound, wantCalls: 1},
		{name: "found", folderID: "f1", wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockStore{byFolderFn: func(_ context.Context, folderID string) ([]database.Image, error) {
				if folderID != tt.folderID {
					t.Errorf("folderID = %q, want %q", folderID, tt.folderID)
				}
				return nil, tt.storeErr
			}}

			got, err := NewGetImagesByFolderID(store).Execute(context.Background(),
				GetImagesByFolderIDRequest{FolderID: tt.folderID})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil || got == nil {
				t.Errorf("got %#v, %v; want empty slice", got, err)
			}
			if store.calls != tt.wantCalls {
				t.Errorf("store called %d times, want %d", store.calls, tt.wantCalls)
			}
		})
	}
}

// TestAgainstStore runs the use cases over a real database.
func TestAgainstStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	db, err := database.New(ctx, filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	root, _, err := db.UpsertFolder(ctx, "/lib", "")
	if err != nil {
		t.Fatal(err)
	}
	catA, _, err := db.UpsertFolder(ctx, "/lib/catA", root.ID)
	if err != nil {
		t.Fatal(err)
	}
	meta := &media.Metadata{Format: "png", MimeType: "image/png", Width: 1, Height: 1, FileSize: 10, Checksum: "abc"}
	if _, _, err := db.UpsertImage(ctx, database.ImageUpsert{Path: "/lib/catA/cat1.png", FolderID: catA.ID, Metadata: meta, ModTime: time.Now()}); err != nil {
		t.Fatal(err)
	}

	roots, err := NewGetRootFolders(db).Execute(ctx)
	if err != nil || len(roots) != 1 || roots[0].ID != root.ID {
		t.Errorf("roots = %+v, %v", roots, err)
	}
	images, err := NewGetImagesByFolderID(db).Execute(ctx, GetImagesByFolderIDRequest{FolderID: catA.ID})
	if err != nil || len(images) != 1 || images[0].Name != "cat1.png" {
		t.Errorf("images = %+v, %v", images, err)
	}
	empty, err := NewGetImagesByFolderID(db).Execute(ctx, GetImagesByFolderIDRequest{FolderID: root.ID})
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("root images = %#v, %v", empty, err)
	}
	if _, err := NewGetImagesByFolderID(db).Execute(ctx, GetImagesByFolderIDRequest{FolderID: "missing"}); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("missing folder err = %v", err)
	}
	all, err := NewGetAllImages(db).Execute(ctx)
	if err != nil || len(all) != 1 {
		t.Errorf("all = %+v, %v", all, err)
	}
}
