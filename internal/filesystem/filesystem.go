package filesystem

import (
	"os"
	"path/filepath"
)

// FileSystem is the storage collaborator used for downloaded stream content.
type FileSystem interface {
	FileExists(path string) (bool, error)
	DeleteFile(path string) error
	WriteFile(path string, data []byte) error
	EnsureDirectory(path string) error
}

// OSFileSystem implements the FileSystem interface using OS file operations
type OSFileSystem struct{}

// NewOSFileSystem creates a new OS filesystem
func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{}
}

// WriteFile writes data to path, creating parent directories as needed
func (fs *OSFileSystem) WriteFile(path string, data []byte) error {
	if err := fs.EnsureDirectory(filepath.Dir(path)); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// DeleteFile removes a file or a whole stream directory
func (fs *OSFileSystem) DeleteFile(path string) error {
	return os.RemoveAll(path)
}

// EnsureDirectory ensures a directory exists
func (fs *OSFileSystem) EnsureDirectory(path string) error {
	return os.MkdirAll(path, 0o755)
}

// FileExists checks if a file exists
func (fs *OSFileSystem) FileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
