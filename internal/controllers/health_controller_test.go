package controllers

import (
	"approachlog/internal/backup"
	"approachlog/internal/models"
	"approachlog/internal/structures"
	"approachlog/internal/testutil"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func directoryTargets(t *testing.T) *backup.Targets {
	t.Helper()
	conf := &structures.Config{Backup: structures.BackupConfig{Enabled: true, Dir: t.TempDir(), Prefix: "police-data"}}
	targets, err := backup.NewTargets(conf, &testutil.MockCompressor{}, &testutil.MockLogger{}, &testutil.MockMetrics{})
	require.NoError(t, err)
	return targets
}

func health(hc *HealthController, method string) (*httptest.ResponseRecorder, map[string]interface{}) {
	rr := httptest.NewRecorder()
	hc.Health(rr, httptest.NewRequest(method, "/health", nil))
	var resp map[string]interface{}
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	return rr, resp
}

func TestHealth_ReturnsOK(t *testing.T) {
	svc := newTestService(t)
	ac := NewApiController(&testutil.MockLogger{}, svc)
	create(t, ac, "2024-01-01", models.PersonEntry{Name: "Ana"})
	hc := NewHealthController(svc, directoryTargets(t))

	rr, resp := health(hc, http.MethodGet)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "ok", resp["status"])
	assert.Contains(t, resp, "uptime")
	assert.Contains(t, resp, "uptime_seconds")
	assert.Equal(t, float64(1), resp["records"])
	assert.Equal(t, map[string]interface{}{"primary": "directory", "enabled": true}, resp["backup"])
}

func TestHealth_BackupDisabled(t *testing.T) {
	conf := &structures.Config{}
	targets, err := backup.NewTargets(conf, &testutil.MockCompressor{}, &testutil.MockLogger{}, &testutil.MockMetrics{})
	require.NoError(t, err)
	hc := NewHealthController(newTestService(t), targets)

	_, resp := health(hc, http.MethodGet)

	assert.Equal(t, map[string]interface{}{"primary": "unsupported", "enabled": false}, resp["backup"])
}

func TestHealth_MethodNotAllowed(t *testing.T) {
	hc := NewHealthController(faultyService{}, nil)

	rr, _ := health(hc, http.MethodPost)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, http.MethodGet, rr.Header().Get("Allow"))
}

func TestHealth_DegradedOnStorageFault(t *testing.T) {
	hc := NewHealthController(faultyService{}, nil)

	rr, resp := health(hc, http.MethodGet)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "degraded", resp["status"])
	assert.Contains(t, resp["error"], "disk I/O error")
	assert.NotContains(t, resp, "backup")
}
