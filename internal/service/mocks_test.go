package service

import (
	"context"
	"io"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/cloo-solutions/ragengine/internal/domain"
	"github.com/cloo-solutions/ragengine/internal/pagination"
	"github.com/stretchr/testify/mock"
)

// MockEmbeddingClient is a mock implementation of EmbeddingClient
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockChunkStore is a mock implementation of ChunkStore
type MockChunkStore struct {
	mock.Mock
}

func (m *MockChunkStore) Insert(ctx context.Context, chunk *domain.DocumentChunk) error {
	args := m.Called(ctx, chunk)
	return args.Error(0)
}

func (m *MockChunkStore) CommitBatch(ctx context.Context, batchID string) (int64, error) {
	args := m.Called(ctx, batchID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockChunkStore) DiscardBatch(ctx context.Context, batchID string) (int64, error) {
	args := m.Called(ctx, batchID)
	return args.Get(0).(int64), args.Error(1)
}

// MockArchiveStore is a mock implementation of ArchiveStore
type MockArchiveStore struct {
	mock.Mock
}

func (m *MockArchiveStore) PutObject(ctx context.Context, key string, body []byte, contentType string) error {
	args := m.Called(ctx, key, body, contentType)
	return args.Error(0)
}

// MockSimilaritySearcher is a mock implementation of SimilaritySearcher
type MockSimilaritySearcher struct {
	mock.Mock
}

func (m *MockSimilaritySearcher) SimilaritySearch(ctx context.Context, embedding []float32, threshold float64, topK int) ([]domain.SimilarityResult, error) {
	args := m.Called(ctx, embedding, threshold, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SimilarityResult), args.Error(1)
}

// MockDocumentStore is a mock implementation of DocumentStore
type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) ListDocuments(ctx context.Context, cursor *pagination.Cursor, limit int) (*pagination.PageResult[domain.DocumentSummary], error) {
	args := m.Called(ctx, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pagination.PageResult[domain.DocumentSummary]), args.Error(1)
}

func (m *MockDocumentStore) DeleteByFilename(ctx context.Context, filename string) (*domain.DeletedDocument, error) {
	args := m.Called(ctx, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeletedDocument), args.Error(1)
}

// MockArchiveRemover is a mock implementation of ArchiveRemover
type MockArchiveRemover struct {
	mock.Mock
}

func (m *MockArchiveRemover) DeleteObject(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockChatCompleter is a mock implementation of ChatCompleter
type MockChatCompleter struct {
	mock.Mock
}

func (m *MockChatCompleter) StreamCompletion(ctx context.Context, req domain.ChatRequest) (domain.CompletionStream, error) {
	args := m.Called(ctx, req)
	if fn, ok := args.Get(0).(func(context.Context, domain.ChatRequest) domain.CompletionStream); ok {
		return fn(ctx, req), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.CompletionStream), args.Error(1)
}

// MockDocumentSearcher is a mock implementation of DocumentSearcher
type MockDocumentSearcher struct {
	mock.Mock
}

func (m *MockDocumentSearcher) Search(ctx context.Context, query string) string {
	args := m.Called(ctx, query)
	return args.String(0)
}

type fixedUUID struct{ id string }

func (f fixedUUID) NewString() string { return f.id }

// scriptedStream replays deltas, then returns err or io.EOF.
type scriptedStream struct {
	deltas []domain.CompletionDelta
	err    error
	closed bool
}

func (s *scriptedStream) Recv() (domain.CompletionDelta, error) {
	if len(s.deltas) == 0 {
		if s.err != nil {
			return domain.CompletionDelta{}, s.err
		}
		return domain.CompletionDelta{}, io.EOF
	}
	d := s.deltas[0]
	s.deltas = s.deltas[1:]
	return d, nil
}

func (s *scriptedStream) Close() error {
	s.closed = true
	return nil
}

// keywordEmbedder embeds text as presence flags over a fixed keyword list.
type keywordEmbedder struct {
	keywords []string
	mu       sync.Mutex
	calls    int
}

func (e *keywordEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	v := make([]float32, len(e.keywords))
	lower := strings.ToLower(text)
	for i, k := range e.keywords {
		if strings.Contains(lower, k) {
			v[i] = 1
		}
	}
	return v, nil
}

// memoryStore is an in-memory ChunkStore and SimilaritySearcher using cosine
// similarity over committed chunks.
type memoryStore struct {
	mu        sync.Mutex
	chunks    []*domain.DocumentChunk
	committed map[string]bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{committed: map[string]bool{}}
}

func (s *memoryStore) Insert(ctx context.Context, chunk *domain.DocumentChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunk)
	return nil
}

func (s *memoryStore) CommitBatch(ctx context.Context, batchID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed[batchID] = true
	var n int64
	for _, c := range s.chunks {
		if c.BatchID == batchID {
			n++
		}
	}
	return n, nil
}

func (s *memoryStore) DiscardBatch(ctx context.Context, batchID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.chunks[:0]
	var n int64
	for _, c := range s.chunks {
		if c.BatchID == batchID && !s.committed[batchID] {
			n++
			continue
		}
		kept = append(kept, c)
	}
	s.chunks = kept
	return n, nil
}

func (s *memoryStore) SimilaritySearch(ctx context.Context, embedding []float32, threshold float64, topK int) ([]domain.SimilarityResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	results := []domain.SimilarityResult{}
	for _, c := range s.chunks {
		if !s.committed[c.BatchID] {
			continue
		}
		sim := cosine(embedding, c.Embedding)
		if sim >= threshold {
			results = append(results, domain.SimilarityResult{Content: c.Content, Filename: c.Metadata.Filename, Similarity: sim})
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Similarity > results[j].Similarity })
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
