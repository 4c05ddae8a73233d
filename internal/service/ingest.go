package service

import (
	"context"
	"fmt"
	"log"
	"path"

	"github.com/cloo-solutions/ragengine/internal/domain"
	"github.com/cloo-solutions/ragengine/internal/extract"
	"github.com/cloo-solutions/ragengine/internal/telemetry"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ChunkStore stages chunks under a batch and commits or discards the batch.
type ChunkStore interface {
	Insert(ctx context.Context, chunk *domain.DocumentChunk) error
	CommitBatch(ctx context.Context, batchID string) (int64, error)
	DiscardBatch(ctx context.Context, batchID string) (int64, error)
}

// ArchiveStore keeps the raw bytes of ingested uploads.
type ArchiveStore interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// IngestionService extracts, chunks, embeds and stores uploaded files.
type IngestionService struct {
	embedder    EmbeddingClient
	store       ChunkStore
	archive     ArchiveStore
	chunkCfg    ChunkConfig
	uuidGen     UUIDGenerator
	concurrency int
}

// IngestionOption configures an IngestionService.
type IngestionOption func(*IngestionService)

// WithArchive stores the raw upload after a successful commit.
func WithArchive(archive ArchiveStore) IngestionOption {
	return func(s *IngestionService) { s.archive = archive }
}

// WithConcurrency caps the number of chunks embedded at once. Zero means no cap.
func WithConcurrency(n int) IngestionOption {
	return func(s *IngestionService) { s.concurrency = n }
}

// WithUUIDGenerator overrides batch ID generation (for testing).
func WithUUIDGenerator(gen UUIDGenerator) IngestionOption {
	return func(s *IngestionService) { s.uuidGen = gen }
}

// NewIngestionService creates a new IngestionService instance
func NewIngestionService(embedder EmbeddingClient, store ChunkStore, opts ...IngestionOption) *IngestionService {
	s := &IngestionService{
		embedder: embedder,
		store:    store,
		chunkCfg: DefaultChunkConfig(),
		uuidGen:  &DefaultUUIDGenerator{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest stores every qualifying chunk of the upload and returns how many were
// stored. Chunks are staged under a fresh batch and only become searchable
// once all of them have been embedded and inserted. On any failure the batch
// is discarded and the first error is returned.
func (s *IngestionService) Ingest(ctx context.Context, upload domain.Upload) (int, error) {
	if upload.Filename == "" {
		return 0, domain.ErrEmptyFilename
	}

	batchID := s.uuidGen.NewString()
	ctx, span := telemetry.StartSpan(ctx, "IngestionService.Ingest", telemetry.SpanAttributes{
		BatchID:   batchID,
		Filename:  upload.Filename,
		Operation: "ingest",
	})
	defer span.End()

	text, err := extract.Text(upload)
	if err != nil {
		span.SetError(err)
		return 0, err
	}

	chunks := chunkText(text, s.chunkCfg)
	span.SetData("chunks", len(chunks))
	if len(chunks) == 0 {
		return 0, nil
	}

	var g errgroup.Group
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}
	for _, content := range chunks {
		g.Go(func() error {
			return s.storeChunk(ctx, batchID, content, upload.Filename)
		})
	}

	if err := g.Wait(); err != nil {
		s.discard(ctx, batchID)
		span.SetError(err)
		return 0, err
	}

	if _, err := s.store.CommitBatch(ctx, batchID); err != nil {
		s.discard(ctx, batchID)
		span.SetError(err)
		return 0, err
	}

	telemetry.AddBreadcrumb(ctx, "ingest", fmt.Sprintf("committed %d chunks of %s", len(chunks), upload.Filename))
	s.archiveUpload(ctx, batchID, upload)

	return len(chunks), nil
}

func (s *IngestionService) storeChunk(ctx context.Context, batchID, content, filename string) error {
	embedding, err := s.embedder.GenerateEmbedding(ctx, content)
	if err != nil {
		return err
	}
	return s.store.Insert(ctx, domain.NewDocumentChunk(batchID, content, embedding, filename))
}

// discard runs detached from ctx so a cancelled request still cleans up.
func (s *IngestionService) discard(ctx context.Context, batchID string) {
	n, err := s.store.DiscardBatch(context.WithoutCancel(ctx), batchID)
	if err != nil {
		log.Printf("ingest: failed to discard batch %s: %v", batchID, err)
		telemetry.CaptureError(ctx, err)
		return
	}
	if n > 0 {
		log.Printf("ingest: discarded %d staged chunks of batch %s", n, batchID)
	}
}

func (s *IngestionService) archiveUpload(ctx context.Context, batchID string, upload domain.Upload) {
	if s.archive == nil {
		return
	}
	key := ArchiveKey(batchID, upload.Filename)
	if err := s.archive.PutObject(ctx, key, upload.Data, upload.ContentType); err != nil {
		log.Printf("ingest: failed to archive %s: %v", key, err)
		telemetry.CaptureError(ctx, fmt.Errorf("archive %s: %w", key, err))
	}
}

// ArchiveKey is the object key under which a batch's raw upload is stored.
func ArchiveKey(batchID, filename string) string {
	return path.Join("uploads", batchID, path.Base("/"+filename))
}
