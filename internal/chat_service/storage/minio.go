package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
)

// MinioStore is a FileStore backed by a MinIO bucket. Localize downloads
// objects into a local cache directory so the PDF parser can read them.
type MinioStore struct {
	client   *minio.Client
	bucket   string
	cacheDir string
}

// NewMinioStore ensures the bucket exists and prepares a local cache
// directory for downloads.
func NewMinioStore(ctx context.Context, client *minio.Client, bucket string) (*MinioStore, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	cacheDir, err := os.MkdirTemp("", "docchat-cache-")
	if err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &MinioStore{
		client:   client,
		bucket:   bucket,
		cacheDir: cacheDir,
	}, nil
}

// Save uploads the file content as an object named name.
func (s *MinioStore) Save(ctx context.Context, name string, r io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to store object: %w", err)
	}
	return nil
}

// Localize downloads the object into the cache directory and returns the
// local path. An already cached file is reused.
func (s *MinioStore) Localize(ctx context.Context, name string) (string, error) {
	path := filepath.Join(s.cacheDir, name)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := s.client.FGetObject(ctx, s.bucket, name, path, minio.GetObjectOptions{}); err != nil {
		return "", fmt.Errorf("failed to fetch object %s: %w", name, err)
	}
	return path, nil
}

// Clear removes every object in the bucket and empties the local cache.
func (s *MinioStore) Clear(ctx context.Context) error {
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if object.Err != nil {
			return fmt.Errorf("failed to list objects: %w", object.Err)
		}
		if err := s.client.RemoveObject(ctx, s.bucket, object.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to remove object %s: %w", object.Key, err)
		}
	}

	if err := os.RemoveAll(s.cacheDir); err != nil {
		return fmt.Errorf("failed to clear cache directory: %w", err)
	}
	return os.MkdirAll(s.cacheDir, 0o755)
}

// compile-time check to ensure MinioStore implements the FileStore interface
var _ FileStore = (*MinioStore)(nil)
