package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"contentproc/internal/core"
)

// These are lightweight structural tests for the parts of Store that
// don't require a live Postgres connection; the query/transaction
// paths themselves are not exercised by these tests.

func TestArticleRoundTripFieldsSurvivePlainStruct(t *testing.T) {
	a := core.Article{
		ID: "a1", URL: "https://example.com/x", Title: "T", CleanedText: "body",
		Language: "en", WordCount: 1, Domain: "example.com",
		CrawledAt: time.Now().UTC(), Status: "ok",
	}
	assert.Equal(t, "a1", a.ID)
	assert.Equal(t, "ok", a.Status)
}

func TestQAPairLastClickedZeroValueMeansNeverClicked(t *testing.T) {
	p := core.QAPair{ID: "q1"}
	assert.True(t, p.LastClickedAt.IsZero())
	assert.Equal(t, int64(0), p.ClickCount)
}
