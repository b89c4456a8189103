// Package files provides the pluggable file storage abstraction: uniform
// get/save/delete/url semantics over a local directory or a remote object
// store. Backends normalize their own faults to an absence/failure signal so
// callers never see backend-specific errors.
package files

import (
	"fmt"
	"strings"

	"github.com/TrueSelph/jvserve/internal/config"
)

// FileStore is the capability set shared by every backend. Get and URL report
// absence via their boolean; Save and Delete report success. A backend that
// cannot find the file reports absence, not an error.
type FileStore interface {
	Get(name string) ([]byte, bool)
	Save(name string, content []byte) bool
	Delete(name string) bool
	URL(name string) (string, bool)
}

// New selects the backend from configuration. The choice is made once at
// process start; the returned instance is shared by all callers.
func New(cfg config.FilesConfig) (FileStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "local":
		return NewLocalStore(cfg.RootPath, cfg.PublicURL), nil
	case "s3":
		return NewS3Store(cfg.S3, cfg.RootPath)
	default:
		return nil, fmt.Errorf("unknown file storage backend %q", cfg.Backend)
	}
}
