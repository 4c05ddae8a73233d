package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Debug       bool   `envconfig:"DEBUG" default:"false"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	DatabaseURL      string `envconfig:"DATABASE_URL" required:"true"`
	DatabaseMaxConns int32  `envconfig:"DATABASE_MAX_CONNS" default:"10"`

	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL       string `envconfig:"OPENAI_BASE_URL"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"768"`
	ChatModel           string `envconfig:"CHAT_MODEL" default:"gpt-4o-mini"`

	ChatTimeout   time.Duration `envconfig:"CHAT_TIMEOUT" default:"30s"`
	AgentMaxSteps int           `envconfig:"AGENT_MAX_STEPS" default:"10"`
	AgentProfile  string        `envconfig:"AGENT_PROFILE"`

	APIToken          string `envconfig:"API_TOKEN"`
	MaxUploadBytes    int64  `envconfig:"MAX_UPLOAD_BYTES" default:"20971520"`
	IngestConcurrency int    `envconfig:"INGEST_CONCURRENCY" default:"0"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"rag-uploads"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	// Staged chunks older than StagingTTL belong to ingestions that never
	// committed and are purged by the janitor.
	StagingTTL      time.Duration `envconfig:"STAGING_TTL" default:"15m"`
	JanitorInterval time.Duration `envconfig:"JANITOR_INTERVAL" default:"1m"`

	SentryDSN string `envconfig:"SENTRY_DSN"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("RAG", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.EmbeddingDimensions <= 0 {
		return nil, fmt.Errorf("RAG_EMBEDDING_DIMENSIONS must be positive, got %d", cfg.EmbeddingDimensions)
	}

	return &cfg, nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasAuth() bool {
	return c.APIToken != ""
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}
