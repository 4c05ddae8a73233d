package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	alphaParagraph = "Alpha beta gamma delta epsilon zeta eta theta iota kappa lam"
	deltaParagraph = "Delta epsilon zeta eta theta iota kappa lambda mu nu xi omicron pi rho sigma tau"
)

func TestChunkText_ShortSegmentDropped(t *testing.T) {
	text := alphaParagraph + "\n\nShort\n\n" + deltaParagraph

	chunks := chunkText(text, DefaultChunkConfig())

	assert.Equal(t, []string{alphaParagraph, deltaParagraph}, chunks)
}

func TestChunkText(t *testing.T) {
	long := strings.Repeat("x", 51)
	exact := strings.Repeat("y", 50)

	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{"Empty", "", []string{}},
		{"OnlyShort", "one\n\ntwo\n\nthree", []string{}},
		{"ExactlyFiftyDropped", exact, []string{}},
		{"FiftyOneKept", long, []string{long}},
		{"PaddingIgnoredForLength", "   " + exact + "   ", []string{}},
		{"PaddingKeptInChunk", "\n" + long + "  ", []string{"\n" + long + "  "}},
		{"SingleNewlineDoesNotSplit", long + "\n" + long, []string{long + "\n" + long}},
		{"CRLF", long + "\r\n\r\n" + long, []string{long, long}},
		{"Multibyte", strings.Repeat("é", 51), []string{strings.Repeat("é", 51)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, chunkText(tt.text, DefaultChunkConfig()))
		})
	}
}

func TestChunkText_ZeroConfigUsesDefault(t *testing.T) {
	chunks := chunkText(alphaParagraph+"\n\n"+deltaParagraph, ChunkConfig{})

	assert.Len(t, chunks, 2)
}
