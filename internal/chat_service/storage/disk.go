package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DiskStore is a FileStore on the local filesystem under a single directory.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the directory if needed and returns the store.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Save writes the file content to dir/name.
func (s *DiskStore) Save(ctx context.Context, name string, r io.Reader, size int64) error {
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Localize returns the path of the stored file. It fails if the file does not
// exist.
func (s *DiskStore) Localize(ctx context.Context, name string) (string, error) {
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("stored file %s is missing: %w", name, err)
	}
	return path, nil
}

// Clear removes the storage directory and recreates it empty.
func (s *DiskStore) Clear(ctx context.Context) error {
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to remove upload directory: %w", err)
	}
	return os.MkdirAll(s.dir, 0o755)
}

// compile-time check to ensure DiskStore implements the FileStore interface
var _ FileStore = (*DiskStore)(nil)
