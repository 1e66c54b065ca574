package llmprovider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contentproc/internal/apperrors"
)

func TestClassifyProviderErrorMapsKnownSubstrings(t *testing.T) {
	cases := map[string]apperrors.Code{
		"401 unauthorized: invalid api key":     apperrors.CodeProviderAuth,
		"429 rate limit exceeded":               apperrors.CodeProviderQuota,
		"model gpt-9 not found":                 apperrors.CodeModelNotFound,
		"400 invalid request: bad schema":       apperrors.CodeInvalidRequest,
		"dial tcp: connection refused":          apperrors.CodeNetwork,
		"context deadline exceeded":             apperrors.CodeTimeout,
	}
	for msg, want := range cases {
		err := classifyProviderError("openai", errors.New(msg))
		ce, ok := apperrors.As(err)
		require.True(t, ok, msg)
		assert.Equal(t, want, ce.Code, msg)
	}
}

type fakeProvider struct {
	name string
	err  error
}

func (f *fakeProvider) Name() string         { return f.name }
func (f *fakeProvider) DefaultModel() string { return "fake-model" }
func (f *fakeProvider) AvailableModels(ctx context.Context) ([]string, error) {
	return []string{"fake-model"}, nil
}
func (f *fakeProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	return &Response{Content: "ok", Provider: f.name}, nil
}
func (f *fakeProvider) Stream(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	ch := make(chan StreamChunk, 1)
	ch <- StreamChunk{Done: true}
	close(ch)
	return ch, nil
}
func (f *fakeProvider) ValidateConnection(ctx context.Context) error { return f.err }

func TestHealthCacheCachesResultForTTL(t *testing.T) {
	p := &fakeProvider{name: "fake"}
	cache := NewHealthCache()

	assert.True(t, cache.Healthy(context.Background(), p))

	p.err = errors.New("now broken")
	assert.True(t, cache.Healthy(context.Background(), p), "should still read the cached healthy result")
}

func TestHealthCacheSnapshotReflectsLastCheck(t *testing.T) {
	p := &fakeProvider{name: "fake", err: errors.New("down")}
	cache := NewHealthCache()
	cache.Healthy(context.Background(), p)

	snap := cache.Snapshot()
	assert.False(t, snap["fake"])
}

func TestNewUnknownKindFails(t *testing.T) {
	_, err := New(Kind("made-up"), "key", "")
	require.Error(t, err)
}
