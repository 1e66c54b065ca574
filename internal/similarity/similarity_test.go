package similarity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineIdentityAndOpposite(t *testing.T) {
	u := []float64{1, 2, 3}
	neg := []float64{-1, -2, -3}

	same, err := Cosine(u, u)
	require.NoError(t, err)
	assert.InDelta(t, 1, same, 1e-6)

	opp, err := Cosine(u, neg)
	require.NoError(t, err)
	assert.InDelta(t, -1, opp, 1e-6)
}

func TestCosineZeroVectorNeverNaN(t *testing.T) {
	zero := []float64{0, 0, 0}
	s, err := Cosine(zero, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.False(t, math.IsNaN(s))
	assert.Equal(t, 0.0, s)
}

func TestCosineMismatchedLengthIsShapeError(t *testing.T) {
	_, err := Cosine([]float64{1, 2}, []float64{1, 2, 3})
	require.Error(t, err)
}

func TestTopKReturnsExactlyKSortedNoDuplicates(t *testing.T) {
	q := []float64{1, 0}
	m := [][]float64{
		{1, 0},    // 1.0
		{0, 1},    // 0.0
		{0.9, 0.1}, // high but not 1
		{-1, 0},   // -1.0
	}

	results, err := TopK(q, m, 2, 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Score >= results[1].Score)

	seen := map[int]bool{}
	for _, r := range results {
		assert.False(t, seen[r.Index])
		seen[r.Index] = true
	}
}

func TestTopKThresholdFiltersBeforeSort(t *testing.T) {
	q := []float64{1, 0}
	m := [][]float64{{1, 0}, {-1, 0}}
	results, err := TopK(q, m, 5, 0.5)
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Index)
}

func TestTopKTieBreaksBySmallerIndex(t *testing.T) {
	q := []float64{1, 0}
	m := [][]float64{{1, 0}, {1, 0}, {1, 0}}
	results, err := TopK(q, m, 3, 0)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 0, results[0].Index)
	assert.Equal(t, 1, results[1].Index)
	assert.Equal(t, 2, results[2].Index)
}

func TestDiversityRequiresAtLeastTwo(t *testing.T) {
	d, err := Diversity([][]float64{{1, 0}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, d)
}

func TestNormalizeUnitLength(t *testing.T) {
	v := Normalize([]float64{3, 4})
	assert.InDelta(t, 1.0, math.Hypot(v[0], v[1]), 1e-9)
}

func TestNormalizeZeroVectorUnchanged(t *testing.T) {
	v := Normalize([]float64{0, 0, 0})
	assert.Equal(t, []float64{0, 0, 0}, v)
}
