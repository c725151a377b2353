package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppInfo holds basic information about the application.
type AppInfo struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"` // "development" or "production"
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Address         string `yaml:"address"`         // listen address, e.g. ":8000"
	ShutdownTimeout string `yaml:"shutdownTimeout"` // e.g. "10s"
}

// UploadConfig holds settings for the document upload endpoint.
type UploadConfig struct {
	Dir         string `yaml:"dir"`         // local directory for stored files
	MaxFileSize int64  `yaml:"maxFileSize"` // per-file size cap in bytes; 0 means 30 MiB
	Store       string `yaml:"store"`       // "disk" or "minio"
}

// SessionConfig holds settings for session token issuance.
type SessionConfig struct {
	TTL   string `yaml:"ttl"`   // validity window for issued tokens, e.g. "12h"
	Store string `yaml:"store"` // "memory" or "redis"
}

// RAGConfig holds the retrieval pipeline settings.
type RAGConfig struct {
	ChunkSize    int `yaml:"chunkSize"`    // chunk size in runes; 0 means 1000
	TopK         int `yaml:"topK"`         // retrieval result count; 0 means 10
	MaxHeavyJobs int `yaml:"maxHeavyJobs"` // bound on concurrent parse/embed/generate work; 0 means 4
}

// GeminiConfig holds Gemini model settings.
type GeminiConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

// OpenAIConfig holds OpenAI model settings.
type OpenAIConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

// OllamaConfig holds Ollama model settings.
type OllamaConfig struct {
	BaseURL string `yaml:"baseURL"`
	Model   string `yaml:"model"`
}

// LLMConfig selects and configures the generation model provider.
type LLMConfig struct {
	Provider string       `yaml:"provider"` // "gemini", "openai" or "ollama"
	Gemini   GeminiConfig `yaml:"gemini"`
	OpenAI   OpenAIConfig `yaml:"openai"`
	Ollama   OllamaConfig `yaml:"ollama"`
}

// EmbeddingConfig selects and configures the embedding model provider.
type EmbeddingConfig struct {
	Provider string       `yaml:"provider"` // "gemini", "openai" or "ollama"
	Gemini   GeminiConfig `yaml:"gemini"`
	OpenAI   OpenAIConfig `yaml:"openai"`
	Ollama   OllamaConfig `yaml:"ollama"`
}

// LoggerConfig holds the log level.
type LoggerConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
}

// MySQLConfig holds the MySQL connection settings.
type MySQLConfig struct {
	Address         string `yaml:"address"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	MaxOpenConns    int    `yaml:"maxOpenConns"`
	MaxIdleConns    int    `yaml:"maxIdleConns"`
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // seconds
}

// MongoConfig holds the MongoDB connection settings.
type MongoConfig struct {
	Address  string `yaml:"address"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MinIOConfig holds the MinIO object storage settings.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Secure    bool   `yaml:"secure"`
}

// DatabaseConfigs groups the backing store settings. Metadata selects which
// store keeps document records.
type DatabaseConfigs struct {
	Metadata string      `yaml:"metadata"` // "mysql" or "mongo"
	MySQL    MySQLConfig `yaml:"mysql"`
	MongoDB  MongoConfig `yaml:"mongodb"`
	Redis    RedisConfig `yaml:"redis"`
	MinIO    MinIOConfig `yaml:"minio"`
}

// TokenBucketConfig configures the token bucket rate limiter.
type TokenBucketConfig struct {
	Rate     float64 `yaml:"rate"` // tokens per second
	Capacity int     `yaml:"capacity"`
}

// FixedWindowConfig configures the fixed window rate limiter.
type FixedWindowConfig struct {
	Limit  int    `yaml:"limit"`
	Window string `yaml:"window"` // e.g. "1m", "30s"
}

// RateLimiterConfig configures request rate limiting.
type RateLimiterConfig struct {
	Enabled     bool              `yaml:"enabled"`
	Algorithm   string            `yaml:"algorithm"` // "tokenBucket" or "fixedWindow"
	TokenBucket TokenBucketConfig `yaml:"tokenBucket"`
	FixedWindow FixedWindowConfig `yaml:"fixedWindow"`
}

// CircuitBreakerConfig configures the circuit breaker middleware.
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // e.g. "30s"
}

// MiddlewareConfig groups middleware settings.
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// AppConfig is the root of the YAML configuration file.
type AppConfig struct {
	App        AppInfo          `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Upload     UploadConfig     `yaml:"upload"`
	Session    SessionConfig    `yaml:"session"`
	RAG        RAGConfig        `yaml:"rag"`
	LLM        LLMConfig        `yaml:"llm"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Logger     LoggerConfig     `yaml:"logger"`
	Databases  DatabaseConfigs  `yaml:"databases"`
	Middleware MiddlewareConfig `yaml:"middleware"`
}

// LoadConfig reads and parses the YAML configuration file at path.
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}
