package minio

import (
	"context"
	"fmt"
	"sync"

	"docchat/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	client  *minio.Client
	once    sync.Once
	initErr error
)

// GetClient initializes and returns a MinIO client. The connection is
// established once per process; later calls return the same instance.
func GetClient(ctx context.Context, cfg *config.MinIOConfig) (*minio.Client, error) {
	once.Do(func() {
		c, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.Secure,
		})
		if err != nil {
			initErr = fmt.Errorf("failed to create MinIO client: %w", err)
			return
		}

		if _, err := c.ListBuckets(ctx); err != nil {
			initErr = fmt.Errorf("MinIO initial health check failed: %w", err)
			return
		}

		client = c
	})

	return client, initErr
}

// HealthCheck lists buckets to verify connectivity and credentials.
func HealthCheck(ctx context.Context) error {
	if client == nil {
		return fmt.Errorf("MinIO client is not initialized")
	}
	if _, err := client.ListBuckets(ctx); err != nil {
		return fmt.Errorf("MinIO health check failed: %w", err)
	}
	return nil
}
