package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contentproc/internal/apperrors"
	"contentproc/internal/core"
)

type fakePipeline struct {
	result *core.ProcessingResult
	err    error
}

func (f *fakePipeline) Process(ctx context.Context, targetURL string, forceRefresh bool) (*core.ProcessingResult, error) {
	return f.result, f.err
}

type fakeQuestionStore struct {
	pairs map[string]core.QAPair
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
		return nil, apperrors.New(apperrors.CodeNotFound, "question not found")
	}
	return &p, nil
}

func (f *fakeQuestionStore) GetByID(ctx context.Context, id string) (*core.Article, error) {
	return nil, apperrors.New(apperrors.CodeNotFound, "article not found")
}

func (f *fakeQuestionStore) RecordClick(ctx context.Context, id string) (int64, error) {
	return 1, nil
}

var testValidator = StaticKeyValidator{Keys: map[string]APIKeyInfo{
	"test-key": {KeyID: "k1", Scopes: []string{"read", "write"}, RateLimitPerMin: 1000},
}}

func TestHandleProcessRequiresURL(t *testing.T) {
	srv := New("", Dependencies{Pipeline: &fakePipeline{}, KeyValidator: testValidator})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/processing/process", strings.NewReader(`{}`))
	req.Header.Set("X-API-Key", "test-key")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandleProcessHappyPath(t *testing.T) {
	result := &core.ProcessingResult{BlogURL: "https://example.test/a", BlogID: "a1", Status: "success"}
	srv := New("", Dependencies{Pipeline: &fakePipeline{result: result}, KeyValidator: testValidator})

	body := `{"url":"https://example.test/a","num_questions":3}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/processing/process", strings.NewReader(body))
	req.Header.Set("X-API-Key", "test-key")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"blog_id":"a1"`)
}

func TestHandleProcessMissingAPIKeyIsUnauthorized(t *testing.T) {
	srv := New("", Dependencies{Pipeline: &fakePipeline{result: &core.ProcessingResult{}}, KeyValidator: testValidator})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/processing/process", strings.NewReader(`{"url":"x"}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleQuestionByIDNotFound(t *testing.T) {
	srv := New("", Dependencies{
		QuestionStore: &fakeQuestionStore{pairs: map[string]core.QAPair{}},
		KeyValidator:  testValidator,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/questions/missing", nil)
	req.Header.Set("X-API-Key", "test-key")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleQuestionByIDFound(t *testing.T) {
	srv := New("", Dependencies{
		QuestionStore: &fakeQuestionStore{pairs: map[string]core.QAPair{
			"q1": {ID: "q1", ArticleID: "a1", Question: "Q?", Answer: "A."},
		}},
		KeyValidator: testValidator,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/questions/q1", nil)
	req.Header.Set("X-API-Key", "test-key")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"question":"Q?"`)
}

func TestHealthEndpointNoAuthRequired(t *testing.T) {
	srv := New("", Dependencies{})
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}

func TestWriteErrorIncludesRetryAfterHeader(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	err := apperrors.New(apperrors.CodeRateLimit, "too many requests").WithRetryAfter(5)
	writeError(w, req, err)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "5", w.Header().Get("Retry-After"))
}
