package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrueSelph/jvserve/internal/files"
)

func newFilesRouter(t *testing.T) (*gin.Engine, *files.LocalStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := files.NewLocalStore(t.TempDir(), "http://localhost:9000/files")
	h := NewFileHandlers(store)
	router := gin.New()
	h.RegisterRoutes(router.Group("/files"))
	return router, store
}

func TestFilesServe(t *testing.T) {
	router, store := newFilesRouter(t)
	require.True(t, store.Save("docs/readme.txt", []byte("stored bytes")))

	req := httptest.NewRequest(http.MethodGet, "/files/docs/readme.txt", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stored bytes", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}

func TestFilesServeMissing(t *testing.T) {
	router, _ := newFilesRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/files/nope.bin", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFilesServeRejectsTraversal(t *testing.T) {
	router, store := newFilesRouter(t)
	require.True(t, store.Save("safe.txt", []byte("x")))

	req := httptest.NewRequest(http.MethodGet, "/files/..%2f..%2fetc%2fpasswd", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFilesServeUnknownExtension(t *testing.T) {
	router, store := newFilesRouter(t)
	require.True(t, store.Save("blob", []byte{0x00, 0x01}))

	req := httptest.NewRequest(http.MethodGet, "/files/blob", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
}
