package redis

import (
	"context"
	"fmt"
	"sync"

	"docchat/internal/config"

	"github.com/go-redis/redis/v8"
)

var (
	client  *redis.Client
	once    sync.Once
	initErr error
)

// GetClient initializes and returns a Redis client. The connection is
// established once per process; later calls return the same instance.
func GetClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	once.Do(func() {
		c := redis.NewClient(&redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		})

		if err := c.Ping(ctx).Err(); err != nil {
			initErr = fmt.Errorf("failed to connect to Redis: %w", err)
			return
		}

		client = c
	})

	return client, initErr
}

// Close safely closes the singleton client.
func Close() error {
	if client != nil {
		return client.Close()
	}
	return nil
}

// HealthCheck pings Redis to verify connectivity.
func HealthCheck(ctx context.Context) error {
	if client == nil {
		return fmt.Errorf("Redis client is not initialized")
	}
	return client.Ping(ctx).Err()
}
