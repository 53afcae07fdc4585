package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"aigen-index/internal/database"
	"aigen-index/internal/logging"
	"aigen-index/internal/usecases"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONResponse writes v as JSON with the given status code.
func writeJSONResponse(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, v)
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONResponse(w, statusCode, map[string]string{"error": message})
}

// statusClientClosedRequest is nginx's code for a request the client gave up
// on. The client never reads it, but the access log and request metrics do.
const statusClientClosedRequest = 499

// writeError maps a store or use case error to a status code.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, usecases.ErrInvalidRequest):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, database.ErrNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, context.Canceled):
		logging.Debug("%s %s cancelled: %v", r.Method, r.URL.Path, err)
		writeJSONError(w, "request cancelled", statusClientClosedRequest)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, database.ErrWriteConflict):
		logging.Warn("%s %s: %v", r.Method, r.URL.Path, err)
		writeJSONError(w, "index temporarily unavailable", http.StatusServiceUnavailable)
	default:
		logging.Error("%s %s: %v", r.Method, r.URL.Path, err)
		writeJSONError(w, "internal error", http.StatusInternalServerError)
	}
}
