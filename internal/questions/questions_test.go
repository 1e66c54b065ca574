package questions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contentproc/internal/llmprovider"
)

type fakeCaller struct {
	content string
	err     error
}

func (f *fakeCaller) Generate(ctx context.Context, req llmprovider.Request) (*llmprovider.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llmprovider.Response{Content: f.content}, nil
}

func TestGenerateParsesWellFormedJSON(t *testing.T) {
	caller := &fakeCaller{content: `{"questions": [{"question": "Why?", "answer": "Because.", "keyword_anchor": "reason", "probability": 0.7}]}`}
	g := New(caller, "test-model")

	pairs, err := g.Generate(context.Background(), "article-1", "some article text", "Title", 3, "")
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "Why?", pairs[0].Question)
	assert.False(t, pairs[0].Degraded)
}

func TestGenerateStripsMarkdownFences(t *testing.T) {
	caller := &fakeCaller{content: "```json\n{\"questions\": [{\"question\": \"Q\", \"answer\": \"A\", \"probability\": 0.5}]}\n```"}
	g := New(caller, "test-model")

	pairs, err := g.Generate(context.Background(), "a1", "text", "Title", 1, "")
	require.NoError(t, err)
	require.Len(t, pairs, 1)
}

func TestGenerateDropsItemsViolatingContract(t *testing.T) {
	caller := &fakeCaller{content: `{"questions": [{"question": "", "answer": "A", "probability": 0.5}, {"question": "Q", "answer": "A", "probability": 1.5}, {"question": "Q2", "answer": "A2", "probability": 0.4}]}`}
	g := New(caller, "test-model")

	pairs, err := g.Generate(context.Background(), "a1", "text", "Title", 3, "")
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "Q2", pairs[0].Question)
}

func TestGenerateRepairsJSONWrappedInProse(t *testing.T) {
	caller := &fakeCaller{content: `Sure, here you go: {"questions": [{"question": "Q", "answer": "A", "probability": 0.6}]} hope that helps!`}
	g := New(caller, "test-model")

	pairs, err := g.Generate(context.Background(), "a1", "text", "Title", 1, "")
	require.NoError(t, err)
	require.Len(t, pairs, 1)
}

func TestGenerateFallsBackToDegradedSetOnProviderError(t *testing.T) {
	caller := &fakeCaller{err: assertErr{}}
	g := New(caller, "test-model")

	pairs, err := g.Generate(context.Background(), "a1", "First paragraph.\n\nSecond paragraph with more detail.", "Title", 2, "")
	require.NoError(t, err)
	require.NotEmpty(t, pairs)
	for _, p := range pairs {
		assert.True(t, p.Degraded)
		assert.LessOrEqual(t, p.Probability, 0.3)
	}
}

func TestGenerateZeroValidItemsIsHardFailure(t *testing.T) {
	caller := &fakeCaller{content: `not json at all and no paragraphs`}
	g := New(caller, "")
	_, err := g.Generate(context.Background(), "a1", "", "Title", 2, "")
	assert.Error(t, err)
}

type assertErr struct{}

func (assertErr) Error() string { return "provider unavailable" }
