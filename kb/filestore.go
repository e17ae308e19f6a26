package kb

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafePathChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// FileStore keeps uploaded source files on local disk, laid out as
// root/tenant/sourceID/filename.
type FileStore struct {
	root string
}

// NewFileStore creates a file store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("file store root cannot be empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{root: dir}, nil
}

// Save writes the upload to disk and returns its storage path.
func (s *FileStore) Save(tenantID, sourceID, filename string, data []byte) (string, error) {
	dir := filepath.Join(s.root, sanitize(tenantID), sanitize(sourceID))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, sanitize(filename))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// Read loads a stored file.
func (s *FileStore) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Exists reports whether the stored file is still on disk.
func (s *FileStore) Exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// RemoveSourceDir deletes every stored file of the source.
func (s *FileStore) RemoveSourceDir(tenantID, sourceID string) error {
	return os.RemoveAll(filepath.Join(s.root, sanitize(tenantID), sanitize(sourceID)))
}

// sanitize strips path separators and shell-hostile characters from a
// path component so uploads cannot escape the store root.
func sanitize(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = unsafePathChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." {
		return "unnamed"
	}
	return name
}
