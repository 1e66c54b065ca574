package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contentproc/internal/embeddings"
)

type fakeEmbed struct {
	name string
	dim  int
	fail bool
}

func (f *fakeEmbed) Name() string   { return f.name }
func (f *fakeEmbed) Model() string  { return "fake-model" }
func (f *fakeEmbed) Dimension() int { return f.dim }
func (f *fakeEmbed) Generate(ctx context.Context, text string) ([]float64, error) {
	if f.fail {
		return nil, errors.New("boom")
	}
	v := make([]float64, f.dim)
	for i := range v {
		v[i] = 1
	}
	return v, nil
}
func (f *fakeEmbed) GenerateBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := f.Generate(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
func (f *fakeEmbed) Healthcheck(ctx context.Context) bool { return true }
func (f *fakeEmbed) EstimateCost(texts []string) float64  { return 0 }

var _ embeddings.Provider = (*fakeEmbed)(nil)

func TestEmbeddingOrchestratorUsesPrimary(t *testing.T) {
	o := NewEmbeddingOrchestrator([]embeddings.Provider{&fakeEmbed{name: "p", dim: 4}}, 60)

	vec, err := o.Embed(context.Background(), "short text")
	require.NoError(t, err)
	assert.Len(t, vec, 4)
}

func TestEmbeddingOrchestratorChunksOversizedInput(t *testing.T) {
	o := NewEmbeddingOrchestrator([]embeddings.Provider{&fakeEmbed{name: "p", dim: 3}}, 60)

	longText := strings.Repeat("word ", 5000)
	vec, err := o.Embed(context.Background(), longText)
	require.NoError(t, err)
	assert.Len(t, vec, 3)
}

func TestEmbeddingOrchestratorFallsBackOnError(t *testing.T) {
	primary := &fakeEmbed{name: "primary", dim: 3, fail: true}
	fallback := &fakeEmbed{name: "fallback", dim: 3}
	o := NewEmbeddingOrchestrator([]embeddings.Provider{primary, fallback}, 60)

	vec, err := o.Embed(context.Background(), "short text")
	require.NoError(t, err)
	assert.Len(t, vec, 3)
}
