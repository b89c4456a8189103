package handlers

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/TrueSelph/jvserve/internal/files"
)

// FileHandlers serves stored files straight from the configured backend.
type FileHandlers struct {
	store files.FileStore
}

func NewFileHandlers(store files.FileStore) *FileHandlers {
	return &FileHandlers{store: store}
}

// RegisterRoutes mounts the file-serving routes on the given group, which the
// server wraps with CORS-open middleware.
func (h *FileHandlers) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/*name", h.Serve)
	api.HEAD("/*name", h.Serve)
}

// Serve returns the named file's bytes, or 404 when the backend reports
// absence.
func (h *FileHandlers) Serve(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("name"), "/")
	if name == "" || strings.Contains(name, "..") {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}

	content, ok := h.store.Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, content)
}
