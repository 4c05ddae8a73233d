package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/cloo-solutions/ragengine/internal/domain"
	"github.com/cloo-solutions/ragengine/internal/pagination"
	"github.com/cloo-solutions/ragengine/internal/telemetry"
)

// DocumentStore lists and deletes committed documents.
type DocumentStore interface {
	ListDocuments(ctx context.Context, cursor *pagination.Cursor, limit int) (*pagination.PageResult[domain.DocumentSummary], error)
	DeleteByFilename(ctx context.Context, filename string) (*domain.DeletedDocument, error)
}

// ArchiveRemover drops archived uploads.
type ArchiveRemover interface {
	DeleteObject(ctx context.Context, key string) error
}

var ErrInvalidCursor = domain.NewDomainError(domain.ErrCodeInvalidInput, "invalid cursor")

// DocumentService exposes the ingested documents.
type DocumentService struct {
	store   DocumentStore
	archive ArchiveRemover
}

// DocumentOption configures a DocumentService.
type DocumentOption func(*DocumentService)

// WithArchiveRemover removes the archived uploads of deleted documents.
func WithArchiveRemover(archive ArchiveRemover) DocumentOption {
	return func(s *DocumentService) { s.archive = archive }
}

// NewDocumentService creates a new DocumentService instance
func NewDocumentService(store DocumentStore, opts ...DocumentOption) *DocumentService {
	s := &DocumentService{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type ListDocumentsInput struct {
	Cursor string
	Limit  int
}

// List returns one page of documents, newest first.
func (s *DocumentService) List(ctx context.Context, input ListDocumentsInput) (*pagination.PageResult[domain.DocumentSummary], error) {
	cursor, err := pagination.DecodeCursor(input.Cursor)
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidCursor) {
			return nil, ErrInvalidCursor
		}
		return nil, err
	}
	return s.store.ListDocuments(ctx, cursor, input.Limit)
}

// Delete removes every committed chunk of filename and returns how many went.
func (s *DocumentService) Delete(ctx context.Context, filename string) (int64, error) {
	if filename == "" {
		return 0, domain.ErrEmptyFilename
	}
	deleted, err := s.store.DeleteByFilename(ctx, filename)
	if err != nil {
		return 0, err
	}
	s.removeArchived(ctx, filename, deleted.BatchIDs)
	return deleted.Chunks, nil
}

// removeArchived is best effort: the chunks are already gone.
func (s *DocumentService) removeArchived(ctx context.Context, filename string, batchIDs []string) {
	if s.archive == nil {
		return
	}
	for _, batchID := range batchIDs {
		key := ArchiveKey(batchID, filename)
		if err := s.archive.DeleteObject(ctx, key); err != nil {
			log.Printf("documents: failed to remove archived %s: %v", key, err)
			telemetry.CaptureError(ctx, fmt.Errorf("remove archived %s: %w", key, err))
		}
	}
}
