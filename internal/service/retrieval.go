package service

import (
	"context"
	"strings"

	"github.com/cloo-solutions/ragengine/internal/domain"
	"github.com/cloo-solutions/ragengine/internal/telemetry"
)

const (
	// SearchToolName is the name the agent and MCP clients call the tool by.
	SearchToolName        = "searchFiles"
	SearchToolDescription = "Search internal documents for relevant information."

	// NoResultsMessage is returned when nothing clears the similarity threshold.
	NoResultsMessage = "No relevant information found in the documents."
	// EmptyQueryMessage is returned for blank queries without calling the embedder.
	EmptyQueryMessage = "Error: No search query provided."
	// ResultDelimiter separates chunk contents in a tool result.
	ResultDelimiter = "\n\n---\n\n"
)

// SimilaritySearcher runs a vector similarity search.
type SimilaritySearcher interface {
	SimilaritySearch(ctx context.Context, embedding []float32, threshold float64, topK int) ([]domain.SimilarityResult, error)
}

// RetrievalTool answers free-text queries with the most similar stored chunks.
type RetrievalTool struct {
	embedder EmbeddingClient
	store    SimilaritySearcher
}

// NewRetrievalTool creates a new RetrievalTool instance
func NewRetrievalTool(embedder EmbeddingClient, store SimilaritySearcher) *RetrievalTool {
	return &RetrievalTool{embedder: embedder, store: store}
}

// Search returns the matching chunk contents as one string. It never fails:
// problems are reported as text the caller can relay.
func (t *RetrievalTool) Search(ctx context.Context, query string) string {
	if strings.TrimSpace(query) == "" {
		return EmptyQueryMessage
	}

	ctx, span := telemetry.StartSpan(ctx, "RetrievalTool.Search", telemetry.SpanAttributes{
		Operation: "retrieve",
	})
	defer span.End()

	embedding, err := t.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		span.SetError(err)
		return "Error: " + err.Error()
	}

	q := domain.NewRetrievalQuery(query)
	results, err := t.store.SimilaritySearch(ctx, embedding, q.Threshold, q.TopK)
	if err != nil {
		span.SetError(err)
		return "Error searching documents: " + err.Error()
	}

	span.SetData("results", len(results))
	return FormatResults(results)
}

// FormatResults joins result contents in rank order, or returns
// NoResultsMessage when there are none.
func FormatResults(results []domain.SimilarityResult) string {
	if len(results) == 0 {
		return NoResultsMessage
	}

	contents := make([]string, len(results))
	for i, r := range results {
		contents[i] = r.Content
	}
	return strings.Join(contents, ResultDelimiter)
}
