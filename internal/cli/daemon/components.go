package daemon

import (
	"context"
	"fmt"
	"log"

	"github.com/cloo-solutions/ragengine/internal/config"
	"github.com/cloo-solutions/ragengine/internal/database"
	"github.com/cloo-solutions/ragengine/internal/openai"
	"github.com/cloo-solutions/ragengine/internal/repository"
	"github.com/cloo-solutions/ragengine/internal/service"
	"github.com/cloo-solutions/ragengine/internal/storage"
	"github.com/cloo-solutions/ragengine/internal/telemetry"
	"github.com/cloo-solutions/ragengine/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	goopenai "github.com/sashabaranov/go-openai"
)

// components are the process-scoped clients shared by every daemon command.
type components struct {
	cfg       *config.Config
	pool      *pgxpool.Pool
	documents *repository.DocumentRepository
	sdk       *goopenai.Client
	embedder  *openai.Client
	retrieval *service.RetrievalTool
	ingestion *service.IngestionService
	catalog   *service.DocumentService
}

func (c *components) Close() {
	c.pool.Close()
}

// initTelemetry starts Sentry when a DSN is configured and returns its flush
// function.
func initTelemetry(cfg *config.Config) func() {
	if !cfg.HasSentry() {
		return func() {}
	}

	// Default to 10% sampling in production, 100% in development
	sampleRate := 0.1
	if cfg.Environment == "development" {
		sampleRate = 1.0
	}

	shutdown, err := telemetry.Init(telemetry.Config{
		DSN:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		TracesSampleRate: sampleRate,
		Debug:            cfg.Debug,
	})
	if err != nil {
		log.Printf("telemetry init failed (continuing without tracing): %v", err)
		return func() {}
	}
	return shutdown
}

func s3Config(cfg *config.Config) storage.S3ClientConfig {
	return storage.S3ClientConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		UsePathStyle:    true,
	}
}

func buildComponents(ctx context.Context, cfg *config.Config, migrate bool) (*components, error) {
	if !cfg.HasOpenAI() {
		return nil, fmt.Errorf("RAG_OPENAI_API_KEY is required")
	}

	pool, err := database.NewPool(ctx, database.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DatabaseMaxConns,
	})
	if err != nil {
		return nil, err
	}
	log.Println("connected to database")

	if migrate {
		if err := migrations.Up(cfg.DatabaseURL); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	sdk := openai.NewSDKClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	embedder := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		BaseURL:             cfg.OpenAIBaseURL,
		EmbeddingModel:      goopenai.EmbeddingModel(cfg.EmbeddingModel),
		EmbeddingDimensions: cfg.EmbeddingDimensions,
	})

	documents := repository.NewDocumentRepository(pool, cfg.EmbeddingDimensions)

	opts := []service.IngestionOption{service.WithConcurrency(cfg.IngestConcurrency)}
	var docOpts []service.DocumentOption
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, s3Config(cfg))
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready, archiving uploads", cfg.S3Bucket)
		opts = append(opts, service.WithArchive(s3Client))
		docOpts = append(docOpts, service.WithArchiveRemover(s3Client))
	}

	return &components{
		cfg:       cfg,
		pool:      pool,
		documents: documents,
		sdk:       sdk,
		embedder:  embedder,
		retrieval: service.NewRetrievalTool(embedder, documents),
		ingestion: service.NewIngestionService(embedder, documents, opts...),
		catalog:   service.NewDocumentService(documents, docOpts...),
	}, nil
}

// agentConfig merges the loaded profile over the environment settings.
func agentConfig(cfg *config.Config, profile *config.AgentProfile) service.AgentConfig {
	model := cfg.ChatModel
	if profile.Model != "" {
		model = profile.Model
	}
	return service.AgentConfig{
		Instructions: profile.Instructions,
		Model:        model,
		Temperature:  profile.Temperature,
		MaxSteps:     cfg.AgentMaxSteps,
		Timeout:      cfg.ChatTimeout,
	}
}
