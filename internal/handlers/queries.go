package handlers

import (
	"net/http"

	"aigen-index/internal/usecases"

	"github.com/gorilla/mux"
)

// ListRootFolders returns every folder without a parent.
func (h *Handlers) ListRootFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.rootFolders.Execute(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, folders)
}

// GetFolder returns a single folder.
func (h *Handlers) GetFolder(w http.ResponseWriter, r *http.Request) {
	folder, err := h.store.GetFolder(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, folder)
}

// ListChildFolders returns the direct subfolders of a folder.
func (h *Handlers) ListChildFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.store.GetChildFolders(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, folders)
}

// ListImages returns every image, most recently scanned first.
func (h *Handlers) ListImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.allImages.Execute(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, images)
}

// ListFolderImages returns the images directly inside a folder.
func (h *Handlers) ListFolderImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.imagesByFolder.Execute(r.Context(), usecases.GetImagesByFolderIDRequest{
		FolderID: mux.Vars(r)["id"],
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, images)
}

// GetStats returns index totals.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, stats)
}

// TriggerScan queues a rescan of the configured roots.
func (h *Handlers) TriggerScan(w http.ResponseWriter, _ *http.Request) {
	if h.scheduler.IsScanning() {
		writeJSONResponse(w, http.StatusConflict, map[string]string{
			"status":  "already_running",
			"message": "A scan is already in progress",
		})
		return
	}

	h.scheduler.Trigger()

	writeJSONResponse(w, http.StatusAccepted, map[string]string{
		"status":  "started",
		"message": "Rescan queued",
	})
}

// GetScanStatus returns the scheduler status, including the last scan
// summaries and live progress.
func (h *Handlers) GetScanStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONResponse(w, http.StatusOK, h.scheduler.Status())
}
