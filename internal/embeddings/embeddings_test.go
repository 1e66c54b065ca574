package embeddings

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateTokensApproximatesWordsTimes1_3(t *testing.T) {
	tokens := estimateTokens("one two three four five")
	assert.Equal(t, 6, tokens)
}

func TestHashProviderDeterministic(t *testing.T) {
	p := NewHashProvider(16)
	a, err := p.Generate(context.Background(), "hello world")
	require.NoError(t, err)
	b, err := p.Generate(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestHashProviderDifferentInputsDiffer(t *testing.T) {
	p := NewHashProvider(16)
	a, _ := p.Generate(context.Background(), "hello")
	b, _ := p.Generate(context.Background(), "world")
	assert.NotEqual(t, a, b)
}

func TestHashProviderDimensionHonored(t *testing.T) {
	p := NewHashProvider(32)
	v, err := p.Generate(context.Background(), "text")
	require.NoError(t, err)
	assert.Len(t, v, 32)
	for _, x := range v {
		assert.False(t, math.IsNaN(x))
	}
}

func TestBatchesSplitsAt100(t *testing.T) {
	texts := make([]string, 250)
	for i := range texts {
		texts[i] = "x"
	}
	groups := batches(texts)
	require.Len(t, groups, 3)
	assert.Len(t, groups[0], 100)
	assert.Len(t, groups[2], 50)
}

type fakeEmbeddingProvider struct {
	name string
	err  error
}

func (f *fakeEmbeddingProvider) Name() string    { return f.name }
func (f *fakeEmbeddingProvider) Model() string   { return "fake" }
func (f *fakeEmbeddingProvider) Dimension() int  { return 4 }
func (f *fakeEmbeddingProvider) EstimateCost([]string) float64 { return 0 }
func (f *fakeEmbeddingProvider) Generate(ctx context.Context, text string) ([]float64, error) {
	return []float64{1, 2, 3, 4}, nil
}
func (f *fakeEmbeddingProvider) GenerateBatch(ctx context.Context, texts []string) ([][]float64, error) {
	return nil, nil
}
func (f *fakeEmbeddingProvider) Healthcheck(ctx context.Context) bool { return f.err == nil }

func TestHealthCacheCaches(t *testing.T) {
	p := &fakeEmbeddingProvider{name: "fake"}
	cache := NewHealthCache()
	assert.True(t, cache.Healthy(context.Background(), p))
	p.err = errors.New("down")
	assert.True(t, cache.Healthy(context.Background(), p))
}
