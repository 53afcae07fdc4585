package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter registers every route. /metrics is served only when
// metricsEnabled is set.
func NewRouter(h *Handlers, metricsEnabled bool) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet).Name("health")
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead).Name("liveness")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet).Name("readiness")
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet).Name("version")
	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler()).Name("metrics")
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/folders", h.ListRootFolders).Methods(http.MethodGet).Name("root-folders")
	api.HandleFunc("/folders/{id}", h.GetFolder).Methods(http.MethodGet).Name("folder")
	api.HandleFunc("/folders/{id}/children", h.ListChildFolders).Methods(http.MethodGet).Name("child-folders")
	api.HandleFunc("/folders/{id}/images", h.ListFolderImages).Methods(http.MethodGet).Name("folder-images")
	api.HandleFunc("/images", h.ListImages).Methods(http.MethodGet).Name("images")
	api.HandleFunc("/stats", h.GetStats).Methods(http.MethodGet).Name("stats")
	api.HandleFunc("/scan", h.TriggerScan).Methods(http.MethodPost).Name("scan")
	api.HandleFunc("/scan", h.GetScanStatus).Methods(http.MethodGet).Name("scan-status")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
	})
	return r
}
