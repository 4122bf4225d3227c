package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	httpadapter "github.com/couchcryptid/crime-map-etl/internal/adapter/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockMaps struct {
	page    []byte
	markers []byte
	summary []byte
}

func (m *mockMaps) MapHTML() ([]byte, bool)        { return m.page, m.page != nil }
func (m *mockMaps) MarkersGeoJSON() ([]byte, bool) { return m.markers, m.markers != nil }
func (m *mockMaps) SummaryJSON() ([]byte, bool)    { return m.summary, m.summary != nil }

const (
	testPage    = "<!DOCTYPE html><title>map</title>"
	testMarkers = `{"type":"FeatureCollection","features":[]}`
	testSummary = `{"run_id":"r1","markers":0}`
)

func newTestServer(readyErr error, maps *mockMaps) *httpadapter.Server {
	if maps == nil {
		maps = &mockMaps{page: []byte(testPage), markers: []byte(testMarkers), summary: []byte(testSummary)}
	}
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, maps, slog.Default())
}

func get(srv http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(newTestServer(nil, nil), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(newTestServer(nil, nil), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(newTestServer(fmt.Errorf("not ready yet"), nil), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(newTestServer(nil, nil), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestMapEndpoints(t *testing.T) {
	srv := newTestServer(nil, nil)

	for _, path := range []string{"/map", "/"} {
		rec := get(srv, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"), path)
		assert.Equal(t, testPage, rec.Body.String(), path)
	}

	rec := get(srv, "/markers.geojson")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, testMarkers, rec.Body.String())

	rec = get(srv, "/report")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, testSummary, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, get(srv, "/nope").Code)
}

func TestMapEndpointsBeforeFirstRun(t *testing.T) {
	srv := newTestServer(fmt.Errorf("pending"), &mockMaps{})

	assert.Equal(t, http.StatusServiceUnavailable, get(srv, "/map").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(srv, "/markers.geojson").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(srv, "/report").Code)
}
