package middleware

import (
	"net/http"
	"strconv"
	"time"

	"aigen-index/internal/metrics"

	"github.com/gorilla/mux"
)

// unmatchedRoute labels requests that no route matched, keeping the path
// label's cardinality bounded.
const unmatchedRoute = "unmatched"

// Metrics records request count, duration and in-flight gauge. Install it
// with router.Use so the matched route template is available as the path
// label.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		start := time.Now()
		rec := newResponseRecorder(w)
		next.ServeHTTP(rec, r)

		path := routeTemplate(r)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.statusCode)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return unmatchedRoute
	}
	tmpl, err := route.GetPathTemplate()
	if err != nil {
		return unmatchedRoute
	}
	return tmpl
}
