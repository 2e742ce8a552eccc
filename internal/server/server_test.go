package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecmap/vecmap/internal/basemap"
)

func newTestContext(t *testing.T) *ServerContext {
	t.Helper()

	root := t.TempDir()
	s, err := NewServerContext(root, basemap.NewFetcher(""))
	require.NoError(t, err)
	return s
}

func TestNewServerContextMissingDir(t *testing.T) {
	_, err := NewServerContext("/does/not/exist", basemap.NewFetcher(""))
	assert.Error(t, err)
}

func TestNewServerContextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := NewServerContext(path, basemap.NewFetcher(""))
	assert.Error(t, err)
}

func TestHandleProviders(t *testing.T) {
	s := newTestContext(t)

	rec := httptest.NewRecorder()
	s.HandleProviders(rec, httptest.NewRequest(http.MethodGet, "/providers", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var names []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &names))
	assert.Contains(t, names, "OpenStreetMap.Mapnik")
}

func TestHandleWorkspaceGeoJSON(t *testing.T) {
	s := newTestContext(t)

	body := `{"type":"FeatureCollection","features":[]}`
	require.NoError(t, os.WriteFile(filepath.Join(s.Root, "layer.geojson"), []byte(body), 0o644))

	rec := httptest.NewRecorder()
	s.HandleWorkspace(rec, httptest.NewRequest(http.MethodGet, "/layer.geojson", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, body, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("ETag"))
}

func TestHandleWorkspaceNotModified(t *testing.T) {
	s := newTestContext(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Root, "map.html"), []byte("<html></html>"), 0o644))

	rec := httptest.NewRecorder()
	s.HandleWorkspace(rec, httptest.NewRequest(http.MethodGet, "/map.html", nil))
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/map.html", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	s.HandleWorkspace(rec, req)

	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestHandleWorkspaceIndex(t *testing.T) {
	s := newTestContext(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Root, "a.geojson"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Root, ".hidden"), []byte("x"), 0o644))

	rec := httptest.NewRecorder()
	s.HandleWorkspace(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "a.geojson")
	assert.NotContains(t, rec.Body.String(), ".hidden")
}

func TestHandleWorkspaceTraversal(t *testing.T) {
	s := newTestContext(t)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.URL.Path = "/../../etc/passwd"
	rec := httptest.NewRecorder()
	s.HandleWorkspace(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleWorkspaceMissing(t *testing.T) {
	s := newTestContext(t)

	rec := httptest.NewRecorder()
	s.HandleWorkspace(rec, httptest.NewRequest(http.MethodGet, "/nope.png", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleTileBadPath(t *testing.T) {
	s := newTestContext(t)

	for _, path := range []string{"/tiles/OpenStreetMap.Mapnik/1/0", "/tiles/Nope/1/0/0", "/tiles/OpenStreetMap.Mapnik/99/0/0"} {
		rec := httptest.NewRecorder()
		s.HandleTile(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestRequestLogger(t *testing.T) {
	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
}
