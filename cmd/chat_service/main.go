package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"docchat/internal/chat_service/api"
	"docchat/internal/chat_service/service"
	"docchat/internal/chat_service/storage"
	"docchat/internal/chat_service/store"
	"docchat/internal/config"
	"docchat/internal/database/minio"
	"docchat/internal/database/mongo"
	"docchat/internal/database/mysql"
	"docchat/internal/database/redis"
	"docchat/internal/embedding"
	"docchat/internal/llm"
	"docchat/internal/rag/embeddings"
	"docchat/internal/rag/pipeline"
	"docchat/internal/rag/splitters"
	"docchat/pkg/circuitbreaker"
	"docchat/pkg/logger"
	"docchat/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New("chat_service", "", "")
	appLogger.Info("Logger initialized")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Document metadata store
	docStore, err := newDocumentStore(ctx, cfg)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	appLogger.Info("Document store initialized")

	// Uploaded file storage
	fileStore, err := newFileStore(ctx, cfg)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	appLogger.Info("File storage initialized")

	// Session token store
	sessionStore, err := newSessionStore(ctx, cfg)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	sessions := service.NewSessionManager(sessionStore, sessionTTL(cfg), appLogger)

	// Model providers
	embedClient, err := embedding.NewModel(cfg.Embedding)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	appLogger.Info("Model providers initialized")

	// RAG pipelines
	embedder := embeddings.NewAdapter(embedClient)
	splitter := splitters.NewRecursiveSplitter(cfg.RAG.ChunkSize)
	indexer := pipeline.NewIndexingPipeline(splitter, embedder, appLogger)
	answerer := pipeline.NewAnswerPipeline(embedder, llmClient, cfg.RAG.TopK, appLogger)

	// Service layer
	registry := service.NewConnectionRegistry(sessions, appLogger)
	chatService := service.NewChatService(sessions, registry, docStore, fileStore, indexer, answerer, cfg.RAG.MaxHeavyJobs, appLogger)

	// Documents never survive a restart.
	if err := chatService.Reset(ctx); err != nil {
		appLogger.Fatal(err.Error())
	}

	// HTTP layer
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	apiHandler := api.NewAPI(chatService, cfg.Upload.MaxFileSize, appLogger)
	api.RegisterRoutes(router, apiHandler, newRateLimiter(cfg), newCircuitBreaker(cfg))

	address := cfg.Server.Address
	if address == "" {
		address = ":8000"
	}
	server := &http.Server{
		Addr:    address,
		Handler: router,
	}

	go func() {
		appLogger.Info("Starting server on " + address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal(err.Error())
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down")

	shutdownTimeout := 10 * time.Second
	if d, err := time.ParseDuration(cfg.Server.ShutdownTimeout); err == nil && d > 0 {
		shutdownTimeout = d
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server shutdown failed: " + err.Error())
	}
	appLogger.Info("Server stopped")
}

// newDocumentStore selects the metadata store backend from the configuration.
func newDocumentStore(ctx context.Context, cfg *config.AppConfig) (store.DocumentStore, error) {
	switch cfg.Databases.Metadata {
	case "mongo":
		db, err := mongo.GetDatabase(ctx, &cfg.Databases.MongoDB)
		if err != nil {
			return nil, err
		}
		return store.NewMongoDocumentStore(db, "documents"), nil
	default:
		db, err := mysql.GetDB(&cfg.Databases.MySQL)
		if err != nil {
			return nil, err
		}
		return store.NewGormDocumentStore(db)
	}
}

// newFileStore selects the uploaded-file storage backend from the
// configuration.
func newFileStore(ctx context.Context, cfg *config.AppConfig) (storage.FileStore, error) {
	switch cfg.Upload.Store {
	case "minio":
		client, err := minio.GetClient(ctx, &cfg.Databases.MinIO)
		if err != nil {
			return nil, err
		}
		return storage.NewMinioStore(ctx, client, cfg.Databases.MinIO.Bucket)
	default:
		dir := cfg.Upload.Dir
		if dir == "" {
			dir = "uploads"
		}
		return storage.NewDiskStore(dir)
	}
}

// newSessionStore selects the session token store backend from the
// configuration.
func newSessionStore(ctx context.Context, cfg *config.AppConfig) (service.SessionStore, error) {
	switch cfg.Session.Store {
	case "redis":
		client, err := redis.GetClient(ctx, &cfg.Databases.Redis)
		if err != nil {
			return nil, err
		}
		return service.NewRedisSessionStore(client), nil
	default:
		return service.NewMemorySessionStore(), nil
	}
}

// sessionTTL parses the configured token validity window, defaulting to 12h.
func sessionTTL(cfg *config.AppConfig) time.Duration {
	if d, err := time.ParseDuration(cfg.Session.TTL); err == nil && d > 0 {
		return d
	}
	return 12 * time.Hour
}

// newRateLimiter builds the configured rate limiter, or nil when disabled.
func newRateLimiter(cfg *config.AppConfig) ratelimiter.RateLimiter {
	rl := cfg.Middleware.RateLimiter
	if !rl.Enabled {
		return nil
	}
	switch rl.Algorithm {
	case "fixedWindow":
		window := time.Minute
		if d, err := time.ParseDuration(rl.FixedWindow.Window); err == nil && d > 0 {
			window = d
		}
		return ratelimiter.NewFixedWindowCounter(rl.FixedWindow.Limit, window)
	default:
		return ratelimiter.NewTokenBucket(rl.TokenBucket.Rate, rl.TokenBucket.Capacity)
	}
}

// newCircuitBreaker builds the configured circuit breaker, or nil when
// disabled.
func newCircuitBreaker(cfg *config.AppConfig) circuitbreaker.CircuitBreaker {
	cb := cfg.Middleware.CircuitBreaker
	if !cb.Enabled {
		return nil
	}
	timeout := 30 * time.Second
	if d, err := time.ParseDuration(cb.Timeout); err == nil && d > 0 {
		timeout = d
	}
	return circuitbreaker.New(cb.FailureThreshold, cb.SuccessThreshold, timeout)
}
