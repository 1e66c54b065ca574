package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingDimension(t *testing.T) {
	e := Embedding{Vector: []float64{1, 2, 3}}
	assert.Equal(t, 3, e.Dimension())

	var empty Embedding
	assert.Equal(t, 0, empty.Dimension())
}

func TestArticleZeroValue(t *testing.T) {
	var a Article
	require.Empty(t, a.ID)
	assert.True(t, a.CrawledAt.IsZero())
}

func TestQAPairNeverClicked(t *testing.T) {
	q := QAPair{Question: "why?", Answer: "because", OrderingIndex: 0}
	assert.True(t, q.LastClickedAt.IsZero())
	assert.Equal(t, int64(0), q.ClickCount)
}

func TestSummaryResultRoundFields(t *testing.T) {
	s := SummaryResult{Summary: "s", KeyPoints: []string{"a", "b"}}
	assert.Len(t, s.KeyPoints, 2)
}

func TestProcessingResultTiming(t *testing.T) {
	r := ProcessingResult{BlogURL: "https://example.test/a", Status: "success"}
	r.ProcessingTimeMs = time.Since(time.Now()).Milliseconds()
	assert.Equal(t, "success", r.Status)
	assert.GreaterOrEqual(t, r.ProcessingTimeMs, int64(0))
}
