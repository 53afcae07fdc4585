package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"aigen-index/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// healthCheckTimeout bounds the store calls made by a health probe.
const healthCheckTimeout = 2 * time.Second

// HealthResponse contains the health check response
type HealthResponse struct {
	Status      string `json:"status"`
	Ready       bool   `json:"ready"`
	Version     string `json:"version"`
	Uptime      string `json:"uptime"`
	Scanning    bool   `json:"scanning"`
	LastScanned string `json:"lastScanned,omitempty"`
	LastError   string `json:"lastError,omitempty"`
	Database    string `json:"database"`

	// Progress of the scan in flight
	FoldersDone int64 `json:"foldersDone"`
	ImagesDone  int64 `json:"imagesDone"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	// Stats summary
	TotalImages  int `json:"totalImages,omitempty"`
	TotalFolders int `json:"totalFolders,omitempty"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := h.scheduler.Status()

	response := HealthResponse{
		Ready:        status.Ready,
		Version:      startup.Version,
		Uptime:       status.Uptime,
		Scanning:     status.Scanning,
		Database:     "ok",
		FoldersDone:  status.Progress.FoldersDone,
		ImagesDone:   status.Progress.ImagesDone,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	if status.Ready {
		response.Status = statusHealthy
	} else {
		response.Status = statusStarting
	}

	if !status.LastScanned.IsZero() {
		response.LastScanned = status.LastScanned.Format(time.RFC3339)
	}

	if status.LastError != "" {
		response.LastError = status.LastError
		response.Status = statusDegraded
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		response.Database = err.Error()
		response.Status = statusDegraded
	} else if stats, err := h.store.Stats(ctx); err == nil {
		response.TotalImages = stats.Images
		response.TotalFolders = stats.Folders
	}

	// Return 503 only if not ready at all
	code := http.StatusOK
	if !status.Ready {
		code = http.StatusServiceUnavailable
	}
	writeJSONResponse(w, code, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when the first scan round has finished
// and the database answers.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if h.scheduler.IsReady() && h.store.Ping(ctx) == nil {
		writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	writeJSONResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
}
