package files

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/TrueSelph/jvserve/internal/logger"
)

// LocalStore reads and writes files under a root directory on the local
// filesystem. Concurrent writers to the same name race; last write wins.
type LocalStore struct {
	root      string
	publicURL string
}

// NewLocalStore returns a store rooted at root. publicURL is the base used to
// compose public links for files that exist on disk.
func NewLocalStore(root, publicURL string) *LocalStore {
	return &LocalStore{
		root:      root,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// Get returns the file's bytes, or absence when it does not exist.
func (s *LocalStore) Get(name string) ([]byte, bool) {
	content, err := os.ReadFile(filepath.Join(s.root, name))
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Logger.Warn().Err(err).Str("file", name).Msg("failed to read file")
		}
		return nil, false
	}
	return content, true
}

// Save writes the file, creating intermediate directories as needed.
func (s *LocalStore) Save(name string, content []byte) bool {
	path := filepath.Join(s.root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logger.Logger.Error().Err(err).Str("file", name).Msg("failed to create file directory")
		return false
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		logger.Logger.Error().Err(err).Str("file", name).Msg("failed to write file")
		return false
	}
	return true
}

// Delete removes the file. A missing file reports false without erroring.
func (s *LocalStore) Delete(name string) bool {
	path := filepath.Join(s.root, name)
	if _, err := os.Stat(path); err != nil {
		return false
	}
	if err := os.Remove(path); err != nil {
		logger.Logger.Warn().Err(err).Str("file", name).Msg("failed to delete file")
		return false
	}
	return true
}

// URL composes the public link for the file, only when it exists on disk.
func (s *LocalStore) URL(name string) (string, bool) {
	if _, err := os.Stat(filepath.Join(s.root, name)); err != nil {
		return "", false
	}
	return s.publicURL + "/" + strings.TrimLeft(name, "/"), true
}
