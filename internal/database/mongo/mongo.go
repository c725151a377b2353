package mongo

import (
	"context"
	"fmt"
	"sync"

	"docchat/internal/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	client  *mongo.Client
	once    sync.Once
	initErr error
)

// GetDatabase initializes the MongoDB client once per process and returns a
// handle to the configured database.
func GetDatabase(ctx context.Context, cfg *config.MongoConfig) (*mongo.Database, error) {
	once.Do(func() {
		uri := fmt.Sprintf("mongodb://%s", cfg.Address)
		opts := options.Client().ApplyURI(uri)
		if cfg.Username != "" {
			opts.SetAuth(options.Credential{
				Username: cfg.Username,
				Password: cfg.Password,
			})
		}

		c, err := mongo.Connect(ctx, opts)
		if err != nil {
			initErr = fmt.Errorf("failed to connect to MongoDB: %w", err)
			return
		}

		if err := c.Ping(ctx, readpref.Primary()); err != nil {
			initErr = fmt.Errorf("MongoDB initial health check failed: %w", err)
			return
		}

		client = c
	})

	if initErr != nil {
		return nil, initErr
	}
	return client.Database(cfg.Database), nil
}

// Close disconnects the singleton client.
func Close(ctx context.Context) error {
	if client != nil {
		return client.Disconnect(ctx)
	}
	return nil
}

// HealthCheck pings the primary to verify connectivity.
func HealthCheck(ctx context.Context) error {
	if client == nil {
		return fmt.Errorf("MongoDB client is not initialized")
	}
	return client.Ping(ctx, readpref.Primary())
}
