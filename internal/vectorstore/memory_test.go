package vectorstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreAddAndGet(t *testing.T) {
	s := NewMemoryStore()
	id, err := s.Add(context.Background(), Document{Content: "hello", Embedding: []float64{1, 0, 0}})
	require.NoError(t, err)

	got, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Content)
}

func TestMemoryStoreDimensionFixedOnFirstAdd(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Add(context.Background(), Document{Content: "a", Embedding: []float64{1, 0}})
	require.NoError(t, err)

	_, err = s.Add(context.Background(), Document{Content: "b", Embedding: []float64{1, 0, 0}})
	assert.Error(t, err)
}

func TestMemoryStoreGetMissingReturnsNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "missing")
	assert.Error(t, err)
}

func TestMemoryStoreDeleteThenGetFails(t *testing.T) {
	s := NewMemoryStore()
	id, _ := s.Add(context.Background(), Document{Content: "x", Embedding: []float64{1}})
	require.NoError(t, s.Delete(context.Background(), id))
	_, err := s.Get(context.Background(), id)
	assert.Error(t, err)
}

func TestMemoryStoreCountHonorsFilter(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	s.Add(ctx, Document{Content: "a", Embedding: []float64{1}, Metadata: map[string]any{"domain": "a.com"}})
	s.Add(ctx, Document{Content: "b", Embedding: []float64{1}, Metadata: map[string]any{"domain": "b.com"}})

	count, err := s.Count(ctx, Filter{"domain": "a.com"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryStoreSimilaritySearchOrdersByScoreDescending(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	s.Add(ctx, Document{Content: "far", Embedding: []float64{0, 1}})
	s.Add(ctx, Document{Content: "near", Embedding: []float64{1, 0}})

	results, err := s.SimilaritySearch(ctx, []float64{1, 0}, 2, nil, -1)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "near", results[0].Document.Content)
}

func TestMemoryStoreSimilaritySearchThresholdExcludesLowScores(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	s.Add(ctx, Document{Content: "orthogonal", Embedding: []float64{0, 1}})

	results, err := s.SimilaritySearch(ctx, []float64{1, 0}, 5, nil, 0.5)
	require.NoError(t, err)
	assert.Len(t, results, 0)
}

func TestMemoryStoreSimilaritySearchTieBreaksByOlderCreatedAt(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	s.Add(ctx, Document{ID: "newer", Embedding: []float64{1, 0}, CreatedAt: now.Add(time.Hour)})
	s.Add(ctx, Document{ID: "older", Embedding: []float64{1, 0}, CreatedAt: now})

	results, err := s.SimilaritySearch(ctx, []float64{1, 0}, 2, nil, -1)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "older", results[0].Document.ID)
}

func TestMemoryStoreClearResetsDimension(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	s.Add(ctx, Document{Embedding: []float64{1, 2, 3}})
	require.NoError(t, s.Clear(ctx))

	_, err := s.Add(ctx, Document{Embedding: []float64{1}})
	assert.NoError(t, err)
}
