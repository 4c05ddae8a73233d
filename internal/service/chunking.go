package service

import (
	"strings"
	"unicode/utf8"

	"github.com/cloo-solutions/ragengine/internal/domain"
)

// ChunkConfig controls how extracted text is split into chunks.
type ChunkConfig struct {
	Separator string
	MinChars  int
}

// DefaultChunkConfig splits on blank lines and keeps paragraphs whose trimmed
// text is longer than domain.MinChunkChars.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Separator: "\n\n",
		MinChars:  domain.MinChunkChars,
	}
}

// chunkText splits text on cfg.Separator after normalizing line endings.
// Chunks are returned as split; only the length check looks at the trimmed text.
func chunkText(text string, cfg ChunkConfig) []string {
	if cfg.Separator == "" {
		cfg = DefaultChunkConfig()
	}

	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	segments := strings.Split(normalized, cfg.Separator)

	chunks := make([]string, 0, len(segments))
	for _, seg := range segments {
		if utf8.RuneCountInString(strings.TrimSpace(seg)) > cfg.MinChars {
			chunks = append(chunks, seg)
		}
	}

	return chunks
}
