package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkTextEmpty(t *testing.T) {
	chunks, err := ChunkText("", DefaultChunkSize, DefaultChunkOverlap)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkTextOffsets(t *testing.T) {
	doc := strings.Repeat("x", 4500)
	chunks, err := ChunkText(doc, 2000, 200)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, 1800, chunks[1].Start)
	assert.Equal(t, 3600, chunks[2].Start)
	assert.Equal(t, 4500, chunks[2].End())
	assert.Len(t, chunks[2].Content, 900)
}

func TestChunkTextShortDocument(t *testing.T) {
	chunks, err := ChunkText("  short note  ", 2000, 200)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "  short note  ", chunks[0].Content)
}

func TestChunkTextRoundTrip(t *testing.T) {
	doc := strings.Repeat("Attention is all you need. Ünïcödé ✓ ", 97)
	for _, tc := range []struct{ size, overlap int }{{10, 2}, {2000, 200}, {7, 0}, {50, 49}} {
		chunks, err := ChunkText(doc, tc.size, tc.overlap)
		require.NoError(t, err)

		var b strings.Builder
		covered := 0
		for _, c := range chunks {
			r := []rune(c.Content)
			b.WriteString(string(r[covered-c.Start:]))
			covered = c.End()
		}
		assert.Equal(t, doc, b.String(), "size=%d overlap=%d", tc.size, tc.overlap)
	}
}

func TestChunkTextDeterministic(t *testing.T) {
	doc := strings.Repeat("abc ", 1000)
	a, err := ChunkText(doc, 300, 30)
	require.NoError(t, err)
	b, err := ChunkText(doc, 300, 30)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestChunkTextRejectsBadParams(t *testing.T) {
	for _, tc := range []struct{ size, overlap int }{{0, 0}, {-1, 0}, {10, 10}, {10, -1}, {10, 12}} {
		_, err := ChunkText("abc", tc.size, tc.overlap)
		assert.ErrorIs(t, err, ErrInvalidChunkParams)
	}
}
