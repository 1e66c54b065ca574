// Package similarity implements the fixed-dimension vector primitives
// used throughout the pipeline: cosine/dot/L2 distance, batch scoring,
// top-k ranking, and a simple diversity measure. All operations are
// pure, stateless, and deterministic.
package similarity

import (
	"math"
	"sort"

	"contentproc/internal/apperrors"
)

// ShapeError is raised for empty or mismatched-length vector inputs.
func ShapeError(message string) error {
	return apperrors.New(apperrors.CodeShapeError, message)
}

// Cosine returns the cosine similarity of a and b, in [-1, 1]. Zero
// vectors (either operand) yield 0, never NaN.
func Cosine(a, b []float64) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, ShapeError("cosine: empty vector")
	}
	if len(a) != len(b) {
		return 0, ShapeError("cosine: mismatched vector lengths")
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Dot returns the plain dot product of a and b.
func Dot(a, b []float64) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, ShapeError("dot: empty vector")
	}
	if len(a) != len(b) {
		return 0, ShapeError("dot: mismatched vector lengths")
	}
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum, nil
}

// L2 returns the Euclidean distance between a and b.
func L2(a, b []float64) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, ShapeError("l2: empty vector")
	}
	if len(a) != len(b) {
		return 0, ShapeError("l2: mismatched vector lengths")
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// Normalize returns a unit-L2-length copy of v, or v unchanged if it is
// a zero vector (norm 0).
func Normalize(v []float64) []float64 {
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// CosineBatch scores q against every row of m, preserving order.
func CosineBatch(q []float64, m [][]float64) ([]float64, error) {
	scores := make([]float64, len(m))
	for i, row := range m {
		s, err := Cosine(q, row)
		if err != nil {
			return nil, err
		}
		scores[i] = s
	}
	return scores, nil
}

// Scored pairs a candidate's index in the original slice with its score.
type Scored struct {
	Index int
	Score float64
}

// TopK scores q against every row of m, filters to score >= threshold,
// and returns the k best sorted by score descending, ties broken by
// smaller index first. If fewer than k candidates pass the threshold,
// all of them are returned.
func TopK(q []float64, m [][]float64, k int, threshold float64) ([]Scored, error) {
	scores, err := CosineBatch(q, m)
	if err != nil {
		return nil, err
	}

	candidates := make([]Scored, 0, len(scores))
	for i, s := range scores {
		if s >= threshold {
			candidates = append(candidates, Scored{Index: i, Score: s})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Index < candidates[j].Index
	})

	if k < len(candidates) {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// Diversity returns the mean pairwise cosine distance (1 - cosine) over
// m. Returns 0 for fewer than two vectors.
func Diversity(m [][]float64) (float64, error) {
	if len(m) < 2 {
		return 0, nil
	}
	var sum float64
	var count int
	for i := 0; i < len(m); i++ {
		for j := i + 1; j < len(m); j++ {
			s, err := Cosine(m[i], m[j])
			if err != nil {
				return 0, err
			}
			sum += 1 - s
			count++
		}
	}
	return sum / float64(count), nil
}
