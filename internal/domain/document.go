package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MinChunkChars is the trimmed length a chunk must exceed to be stored.
	MinChunkChars = 50
	// DefaultMatchThreshold is the minimum similarity for a retrieval hit.
	DefaultMatchThreshold = 0.5
	// DefaultMatchCount caps the number of retrieval hits.
	DefaultMatchCount = 5
)

// ChunkMetadata is stored alongside each chunk as JSON.
type ChunkMetadata struct {
	Filename string `json:"filename"`
}

// DocumentChunk is one paragraph of an ingested file together with its embedding.
type DocumentChunk struct {
	ID        string
	BatchID   string
	Content   string
	Embedding []float32
	Metadata  ChunkMetadata
	CreatedAt time.Time
}

// NewDocumentChunk creates a DocumentChunk staged under batchID.
func NewDocumentChunk(batchID, content string, embedding []float32, filename string) *DocumentChunk {
	return &DocumentChunk{
		BatchID:   batchID,
		Content:   content,
		Embedding: embedding,
		Metadata:  ChunkMetadata{Filename: filename},
	}
}

// ValidateDocumentChunk validates a DocumentChunk instance
func ValidateDocumentChunk(c *DocumentChunk) error {
	if c == nil {
		return fmt.Errorf("document chunk cannot be nil")
	}

	if !IsChunkContent(c.Content) {
		return fmt.Errorf("document chunk content must exceed %d characters after trimming", MinChunkChars)
	}

	if len(c.Embedding) == 0 {
		return fmt.Errorf("document chunk embedding is required")
	}

	if c.Metadata.Filename == "" {
		return fmt.Errorf("document chunk filename is required")
	}

	return nil
}

// IsChunkContent reports whether text is long enough to be stored as a chunk.
func IsChunkContent(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) > MinChunkChars
}

// SimilarityResult is a ranked hit returned by a similarity search.
type SimilarityResult struct {
	ID         string
	Content    string
	Filename   string
	Similarity float64
}

// RetrievalQuery describes a similarity search request.
type RetrievalQuery struct {
	Query     string
	Threshold float64
	TopK      int
}

// NewRetrievalQuery returns a query with the fixed threshold and result cap.
func NewRetrievalQuery(query string) RetrievalQuery {
	return RetrievalQuery{
		Query:     query,
		Threshold: DefaultMatchThreshold,
		TopK:      DefaultMatchCount,
	}
}

// DocumentSummary aggregates the committed chunks of one filename.
type DocumentSummary struct {
	Filename     string
	ChunkCount   int
	LastIngested time.Time
}

// DeletedDocument reports what removing a filename took with it.
type DeletedDocument struct {
	Chunks   int64
	BatchIDs []string
}

// Upload is a file received for ingestion.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}
