package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloo-solutions/ragengine/internal/domain"
	"github.com/cloo-solutions/ragengine/internal/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDocumentService_List(t *testing.T) {
	store := new(MockDocumentStore)
	svc := NewDocumentService(store)

	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	cursor := pagination.EncodeCursor("b.txt", ts)
	page := &pagination.PageResult[domain.DocumentSummary]{
		Items: []domain.DocumentSummary{{Filename: "a.txt", ChunkCount: 3}},
	}
	store.On("ListDocuments", mock.Anything, mock.MatchedBy(func(c *pagination.Cursor) bool {
		return c != nil && c.LastKey == "b.txt" && c.Timestamp.Equal(ts)
	}), 10).Return(page, nil)

	result, err := svc.List(context.Background(), ListDocumentsInput{Cursor: cursor, Limit: 10})

	require.NoError(t, err)
	assert.Equal(t, page, result)
}

func TestDocumentService_List_NoCursor(t *testing.T) {
	store := new(MockDocumentStore)
	svc := NewDocumentService(store)

	store.On("ListDocuments", mock.Anything, (*pagination.Cursor)(nil), 0).
		Return(&pagination.PageResult[domain.DocumentSummary]{Items: []domain.DocumentSummary{}}, nil)

	result, err := svc.List(context.Background(), ListDocumentsInput{})

	require.NoError(t, err)
	assert.Empty(t, result.Items)
}

func TestDocumentService_List_InvalidCursor(t *testing.T) {
	store := new(MockDocumentStore)
	svc := NewDocumentService(store)

	_, err := svc.List(context.Background(), ListDocumentsInput{Cursor: "%%%"})

	assert.ErrorIs(t, err, ErrInvalidCursor)
	assert.Equal(t, domain.ErrCodeInvalidInput, domain.CodeOf(err))
	store.AssertNotCalled(t, "ListDocuments", mock.Anything, mock.Anything, mock.Anything)
}

func TestDocumentService_Delete(t *testing.T) {
	store := new(MockDocumentStore)
	svc := NewDocumentService(store)

	store.On("DeleteByFilename", mock.Anything, "a.txt").Return(&domain.DeletedDocument{Chunks: 4, BatchIDs: []string{"b1"}}, nil)
	store.On("DeleteByFilename", mock.Anything, "missing.txt").Return(nil, domain.ErrDocumentNotFound)

	n, err := svc.Delete(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	_, err = svc.Delete(context.Background(), "missing.txt")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	_, err = svc.Delete(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrEmptyFilename)
}

func TestDocumentService_DeleteRemovesArchivedUploads(t *testing.T) {
	store := new(MockDocumentStore)
	archive := new(MockArchiveRemover)
	svc := NewDocumentService(store, WithArchiveRemover(archive))

	store.On("DeleteByFilename", mock.Anything, "report.pdf").
		Return(&domain.DeletedDocument{Chunks: 5, BatchIDs: []string{"b1", "b2"}}, nil)
	archive.On("DeleteObject", mock.Anything, ArchiveKey("b1", "report.pdf")).Return(errors.New("s3 down"))
	archive.On("DeleteObject", mock.Anything, ArchiveKey("b2", "report.pdf")).Return(nil)

	n, err := svc.Delete(context.Background(), "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	archive.AssertExpectations(t)
}

func TestDocumentService_DeleteKeepsArchiveWhenNothingDeleted(t *testing.T) {
	store := new(MockDocumentStore)
	archive := new(MockArchiveRemover)
	svc := NewDocumentService(store, WithArchiveRemover(archive))

	store.On("DeleteByFilename", mock.Anything, "missing.txt").Return(nil, domain.ErrDocumentNotFound)

	_, err := svc.Delete(context.Background(), "missing.txt")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	archive.AssertNotCalled(t, "DeleteObject", mock.Anything, mock.Anything)
}
