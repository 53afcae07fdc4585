package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aigen-index/internal/database"
	"aigen-index/internal/indexer"
	"aigen-index/internal/media"
	"aigen-index/internal/startup"
)

func serve(t *testing.T, h *Handlers, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, http.NoBody)
	w := httptest.NewRecorder()
	NewRouter(h, true).ServeHTTP(w, req)
	return w
}

// =============================================================================
// Query Endpoint Tests
// =============================================================================

func TestQueryEndpoints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantItems  int // -1 for non-array bodies
	}{
		{name: "root folders", target: "/api/folders", wantStatus: http.StatusOK, wantItems: 1},
		{name: "single folder", target: "/api/folders/catA", wantStatus: http.StatusOK, wantItems: -1},
		{name: "unknown folder", target: "/api/folders/nope", wantStatus: http.StatusNotFound, wantItems: -1},
		{name: "children", target: "/api/folders/root/children", wantStatus: http.StatusOK, wantItems: 2},
		{name: "children of unknown", target: "/api/folders/nope/children", wantStatus: http.StatusNotFound, wantItems: -1},
		{name: "all images", target: "/api/images", wantStatus: http.StatusOK, wantItems: 1},
		{name: "folder images", target: "/api/folders/catA/images", wantStatus: http.StatusOK, wantItems: 1},
		{name: "empty folder images", target: "/api/folders/empty/images", wantStatus: http.StatusOK, wantItems: 0},
		{name: "blank folder id", target: "/api/folders/%20/images", wantStatus: http.StatusBadRequest, wantItems: -1},
		{name: "unknown folder images", target: "/api/folders/nope/images", wantStatus: http.StatusNotFound, wantItems: -1},
		{name: "stats", target: "/api/stats", wantStatus: http.StatusOK, wantItems: -1},
		{name: "unknown route", target: "/api/nothing", wantStatus: http.StatusNotFound, wantItems: -1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h, _, _ := newTestHandlers()
			w := serve(t, h, http.MethodGet, tt.target)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			if tt.wantItems < 0 {
				return
			}
			var items []json.RawMessage
			if err := json.NewDecoder(w.Body).Decode(&items); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if items == nil || len(items) != tt.wantItems {
				t.Errorf("got %d items (nil=%v), want %d", len(items), items == nil, tt.wantItems)
			}
		})
	}
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "not found", err: database.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "write conflict", err: database.ErrWriteConflict, wantStatus: http.StatusServiceUnavailable},
		{name: "deadline", err: context.DeadlineExceeded, wantStatus: http.StatusServiceUnavailable},
		{name: "cancelled", err: fmt.Errorf("query images: %w", context.Canceled), wantStatus: statusClientClosedRequest},
		{name: "other", err: errors.New("disk on fire"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h, store, _ := newTestHandlers()
			store.queryErr = tt.err

			w := serve(t, h, http.MethodGet, "/api/images")
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil || body["error"] == "" {
				t.Errorf("error body = %v, %v", body, err)
			}
			if tt.wantStatus == http.StatusInternalServerError && strings.Contains(body["error"], "fire") {
				t.Error("internal error details leaked to the client")
			}
		})
	}
}

// =============================================================================
// Scan Endpoint Tests
// =============================================================================

func TestTriggerScan(t *testing.T) {
	t.Parallel()

	h, _, scheduler := newTestHandlers()

	w := serve(t, h, http.MethodPost, "/api/scan")
	if w.Code != http.StatusAccepted || scheduler.triggers != 1 {
		t.Errorf("status = %d, triggers = %d", w.Code, scheduler.triggers)
	}

	scheduler.scanning = true
	w = serve(t, h, http.MethodPost, "/api/scan")
	if w.Code != http.StatusConflict || scheduler.triggers != 1 {
		t.Errorf("while scanning: status = %d, triggers = %d", w.Code, scheduler.triggers)
	}

	w = serve(t, h, http.MethodDelete, "/api/scan")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE status = %d, want 405", w.Code)
	}
}

func TestGetScanStatus(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandlers()
	w := serve(t, h, http.MethodGet, "/api/scan")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var status indexer.Status
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if !status.Ready || len(status.Roots) != 1 {
		t.Errorf("status = %+v", status)
	}
}

// =============================================================================
// Version and Metrics Tests
// =============================================================================

func TestGetVersion(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandlers()
	w := serve(t, h, http.MethodGet, "/version")

	if w.Header().Get("Cache-Control") != "no-cache" {
		t.Errorf("Cache-Control = %q", w.Header().Get("Cache-Control"))
	}
	var info startup.BuildInfo
	if err := json.NewDecoder(w.Body).Decode(&info); err != nil {
		t.Fatal(err)
	}
	if info.GoVersion == "" {
		t.Error("GoVersion missing")
	}
}

func TestMetricsRoute(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandlers()
	w := serve(t, h, http.MethodGet, "/metrics")
	if w.Code != http.StatusOK || !strings.Contains(w.Header().Get("Content-Type"), "text/plain") {
		t.Errorf("status = %d, Content-Type = %q", w.Code, w.Header().Get("Content-Type"))
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	rec := httptest.NewRecorder()
	NewRouter(h, false).ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("metrics disabled: status = %d, want 404", rec.Code)
	}
}

// =============================================================================
// Integration
// =============================================================================

// TestRouterAgainstIndex scans a real tree and reads it back over HTTP.
func TestRouterAgainstIndex(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := database.New(ctx, filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	root := filepath.Join(dir, "lib")
	writeTestPNG(t, filepath.Join(root, "catA", "cat1.png"))

	config := indexer.DefaultConfig()
	config.Workers = 1
	idx := indexer.New(db, media.NewExtractor(media.DefaultExtractorConfig()), config)
	scheduler := indexer.NewScheduler(idx, []string{root}, 0)
	if _, err := scheduler.RunOnce(ctx); err != nil {
		t.Fatal(err)
	}

	h := New(db, scheduler)

	w := serve(t, h, http.MethodGet, "/api/folders")
	var roots []database.Folder
	if err := json.NewDecoder(w.Body).Decode(&roots); err != nil {
		t.Fatal(err)
	}
	if len(roots) != 1 || roots[0].Path != root {
		t.Fatalf("roots = %+v", roots)
	}

	w = serve(t, h, http.MethodGet, "/api/folders/"+roots[0].ID+"/children")
	var children []database.Folder
	if err := json.NewDecoder(w.Body).Decode(&children); err != nil {
		t.Fatal(err)
	}
	if len(children) != 1 || children[0].Name != "catA" {
		t.Fatalf("children = %+v", children)
	}

	w = serve(t, h, http.MethodGet, "/api/folders/"+children[0].ID+"/images")
	var images []database.Image
	if err := json.NewDecoder(w.Body).Decode(&images); err != nil {
		t.Fatal(err)
	}
	if len(images) != 1 || images[0].Name != "cat1.png" || images[0].Metadata.Width != 4 {
		t.Errorf("images = %+v", images)
	}
	if images[0].LastScannedAt.IsZero() || time.Since(images[0].LastScannedAt) > time.Hour {
		t.Errorf("LastScannedAt = %v", images[0].LastScannedAt)
	}

	if w := serve(t, h, http.MethodGet, "/readyz"); w.Code != http.StatusOK {
		t.Errorf("readyz = %d", w.Code)
	}
}
