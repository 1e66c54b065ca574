package textproc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreprocessStripsTagsURLsEmailsAndWhitespace(t *testing.T) {
	input := `<p>Contact  us at  team@example.com or visit https://example.test/page &amp; say hi</p>`
	out, err := Preprocess(input, DefaultPreprocessOptions())
	require.NoError(t, err)
	assert.Contains(t, out, "[EMAIL]")
	assert.Contains(t, out, "[URL]")
	assert.NotContains(t, out, "<p>")
	assert.NotContains(t, out, "  ")
}

func TestPreprocessRejectsShortInput(t *testing.T) {
	_, err := Preprocess("hi", DefaultPreprocessOptions())
	require.Error(t, err)
}

func TestPreprocessIsIdempotent(t *testing.T) {
	input := "<div>Hello   World! Visit https://x.test now.</div>"
	once, err := Preprocess(input, DefaultPreprocessOptions())
	require.NoError(t, err)
	twice, err := Preprocess(once, DefaultPreprocessOptions())
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestChunkShortTextReturnsSingleChunk(t *testing.T) {
	text := "A short paragraph that fits easily."
	chunks, err := Chunk(text, ChunkOptions{ChunkSize: 1000, ChunkOverlap: 100, MinChunkSize: 10, MaxChunkSize: 2000})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestChunkRoundTripWithoutOverlap(t *testing.T) {
	text := strings.Repeat("Sentence one. Sentence two. Sentence three. ", 50)
	opts := ChunkOptions{ChunkSize: 200, ChunkOverlap: 0, MinChunkSize: 50, MaxChunkSize: 400}
	base, err := BaseChunks(text, opts)
	require.NoError(t, err)
	reconstructed := strings.Join(base, " ")
	assert.Equal(t, normalizeSpace(text), normalizeSpace(reconstructed))
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func TestChunkOverlapPrependsTrailingChars(t *testing.T) {
	text := strings.Repeat("word ", 400)
	opts := ChunkOptions{ChunkSize: 200, ChunkOverlap: 20, MinChunkSize: 50, MaxChunkSize: 400}
	chunks, err := Chunk(text, opts)
	require.NoError(t, err)
	require.True(t, len(chunks) >= 2)
	base, err := BaseChunks(text, opts)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(chunks[1], base[1]))
	assert.Greater(t, len(chunks[1]), len(base[1]))
}

func TestChunkOversizedParagraphSubdividesBySentence(t *testing.T) {
	text := strings.Repeat("This is one sentence. ", 100)
	opts := ChunkOptions{ChunkSize: 100, ChunkOverlap: 0, MinChunkSize: 10, MaxChunkSize: 150}
	chunks, err := Chunk(text, opts)
	require.NoError(t, err)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), opts.MaxChunkSize+len("This is one sentence."))
	}
}
