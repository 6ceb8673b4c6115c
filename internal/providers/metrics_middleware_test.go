package providers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type mockMetrics struct {
	requestEndpoint string
	requestStatus   int
	requestCalls    int
	durationCalls   int
}

func (m *mockMetrics) IncRequestsTotal(endpoint string, status int) {
	m.requestEndpoint = endpoint
	m.requestStatus = status
	m.requestCalls++
}
func (m *mockMetrics) ObserveRequestDuration(_ string, _ time.Duration) { m.durationCalls++ }
func (m *mockMetrics) IncCacheHits()                                    {}
func (m *mockMetrics) IncCacheMisses()                                  {}
func (m *mockMetrics) ObserveStoreDuration(_ string, _ time.Duration)   {}
func (m *mockMetrics) IncBackups(_ string, _ bool)                      {}
func (m *mockMetrics) SetRecordsTotal(_ int)                            {}

func serveThrough(metrics *mockMetrics, known []string, handler http.HandlerFunc, method, target string) {
	mw := MetricsMiddleware(metrics, known, handler)
	mw.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, target, nil))
}

func TestMetricsMiddleware_LabelsByMethodAndPath(t *testing.T) {
	metrics := &mockMetrics{}
	created := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusCreated) }

	serveThrough(metrics, []string{"/approaches", "/approach"}, created, http.MethodPost, "/approaches")

	assert.Equal(t, 1, metrics.requestCalls)
	assert.Equal(t, "POST /approaches", metrics.requestEndpoint)
	assert.Equal(t, http.StatusCreated, metrics.requestStatus)
	assert.Equal(t, 1, metrics.durationCalls)
}

func TestMetricsMiddleware_QueryStringIgnored(t *testing.T) {
	metrics := &mockMetrics{}
	noContent := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }

	serveThrough(metrics, []string{"/approach"}, noContent, http.MethodDelete, "/approach?id=a1")

	assert.Equal(t, "DELETE /approach", metrics.requestEndpoint)
	assert.Equal(t, http.StatusNoContent, metrics.requestStatus)
}

func TestMetricsMiddleware_DefaultStatus200(t *testing.T) {
	metrics := &mockMetrics{}
	write := func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("[]")) }

	serveThrough(metrics, []string{"/people"}, write, http.MethodGet, "/people?q=ana")

	assert.Equal(t, http.StatusOK, metrics.requestStatus)
}

func TestMetricsMiddleware_UnknownPathFolded(t *testing.T) {
	metrics := &mockMetrics{}

	serveThrough(metrics, []string{"/approaches"}, http.NotFound, http.MethodGet, "/wp-admin/setup.php")

	assert.Equal(t, unmatchedEndpoint, metrics.requestEndpoint)
	assert.Equal(t, http.StatusNotFound, metrics.requestStatus)
}

func TestStatusWriter_WriteHeader(t *testing.T) {
	rr := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rr, status: http.StatusOK}

	sw.WriteHeader(http.StatusUnprocessableEntity)
	assert.Equal(t, http.StatusUnprocessableEntity, sw.status)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}
