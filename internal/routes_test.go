package internal

import (
	"approachlog/internal/controllers"
	"approachlog/internal/testutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRoutes_RegistersEveryEndpoint(t *testing.T) {
	ac := controllers.NewApiController(&testutil.MockLogger{}, nil)

	router := InitRoutes(ac)
	routes := router.GetRoutes()

	urls := make([]string, len(routes))
	for i, r := range routes {
		urls[i] = r.Url
	}

	assert.Equal(t, []string{
		"/approaches", "/approach", "/search", "/people", "/person", "/related",
		"/photos/add", "/photos/profile", "/photos/remove", "/backup/export", "/backup/import",
	}, urls)
}

func TestInitRoutes_MethodEnforcement(t *testing.T) {
	ac := controllers.NewApiController(&testutil.MockLogger{}, nil)
	routes := InitRoutes(ac).GetRoutes()

	mux := http.NewServeMux()
	for _, r := range routes {
		mux.Handle(r.Url, r.Handler)
	}

	req := httptest.NewRequest(http.MethodPost, "/search", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "GET", rr.Header().Get("Allow"))

	req = httptest.NewRequest(http.MethodPatch, "/approach", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "DELETE, GET, PUT", rr.Header().Get("Allow"))
}
