package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contentproc/internal/core"
	"contentproc/internal/vectorstore"
)

func TestMatchesDomainAcceptsExactAndSubdomains(t *testing.T) {
	assert.True(t, MatchesDomain("example.com", "example.com"))
	assert.True(t, MatchesDomain("www.example.com", "example.com"))
	assert.True(t, MatchesDomain("blog.example.com", "example.com"))
	assert.False(t, MatchesDomain("notexample.com", "example.com"))
	assert.False(t, MatchesDomain("example.com.evil.com", "example.com"))
}

type fakeQuestionStore struct {
	pairs    map[string]core.QAPair
	articles map[string]core.Article
}

func (f *fakeQuestionStore) GetQAPairsByArticleID(ctx context.Context, articleID string, limit int) ([]core.QAPair, error) {
	var out []core.QAPair
	for _, p := range f.pairs {
		if p.ArticleID == articleID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeQuestionStore) GetQAPairByID(ctx context.Context, id string) (*core.QAPair, error) {
	p, ok := f.pairs[id]
	if !ok {
		return nil, assertNotFound{}
	}
	return &p, nil
}

func (f *fakeQuestionStore) GetByID(ctx context.Context, id string) (*core.Article, error) {
	a, ok := f.articles[id]
	if !ok {
		return nil, assertNotFound{}
	}
	return &a, nil
}

func (f *fakeQuestionStore) RecordClick(ctx context.Context, id string) (int64, error) {
	p := f.pairs[id]
	p.ClickCount++
	p.LastClickedAt = time.Now()
	f.pairs[id] = p
	return p.ClickCount, nil
}

type assertNotFound struct{}

func (assertNotFound) Error() string { return "not found" }

func TestFindSimilarExcludesSourceArticle(t *testing.T) {
	qs := &fakeQuestionStore{
		pairs: map[string]core.QAPair{
			"q1": {ID: "q1", ArticleID: "source", Question: "Q", Answer: "A", Embedding: core.Embedding{Vector: []float64{1, 0}}},
		},
		articles: map[string]core.Article{
			"other": {ID: "other", Title: "Other", URL: "https://example.com/other"},
		},
	}
	vs := vectorstore.NewMemoryStore()
	ctx := context.Background()
	vs.Add(ctx, vectorstore.Document{Content: "source summary", Embedding: []float64{1, 0}, Metadata: map[string]any{"article_id": "source"}})
	vs.Add(ctx, vectorstore.Document{Content: "other summary", Embedding: []float64{1, 0}, Metadata: map[string]any{"article_id": "other"}})

	svc := New(qs, vs, nil)
	results, err := svc.FindSimilar(ctx, "q1", 5, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "other", results[0].ArticleID)
}

func TestRecordClickIncrementsCount(t *testing.T) {
	qs := &fakeQuestionStore{pairs: map[string]core.QAPair{"q1": {ID: "q1"}}, articles: map[string]core.Article{}}
	svc := New(qs, vectorstore.NewMemoryStore(), nil)

	count, err := svc.RecordClick(context.Background(), "q1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
