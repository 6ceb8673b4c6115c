package providers

import (
	"net/http"
	"time"
)

const unmatchedEndpoint = "other"

// statusWriter remembers the status code written by the wrapped handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// endpointLabel names a request as "METHOD /path" for registered API paths.
// Anything else shares one label, so scanning for random URLs cannot grow
// the label set.
func endpointLabel(known map[string]struct{}, r *http.Request) string {
	if _, ok := known[r.URL.Path]; !ok {
		return unmatchedEndpoint
	}
	return r.Method + " " + r.URL.Path
}

// MetricsMiddleware counts API requests and observes their latency per
// endpoint label.
func MetricsMiddleware(metrics MetricsProviderInterface, known []string, next http.Handler) http.Handler {
	paths := make(map[string]struct{}, len(known))
	for _, url := range known {
		paths[url] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		label := endpointLabel(paths, r)
		metrics.IncRequestsTotal(label, sw.status)
		metrics.ObserveRequestDuration(label, time.Since(start))
	})
}
