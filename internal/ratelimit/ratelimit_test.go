package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"contentproc/internal/apperrors"
)

func TestWindowRejectsAfterBudgetExhausted(t *testing.T) {
	w := NewWindow("openai", 2)
	assert.True(t, w.Allow())
	assert.True(t, w.Allow())
	assert.False(t, w.Allow())
}

func TestErrRateLimitCarriesRetryAfter(t *testing.T) {
	w := NewWindow("openai", 60)
	err := w.ErrRateLimit()
	require := assert.New(t)
	require.Error(err)
	ce, ok := apperrors.As(err)
	if require.True(ok) {
		require.Equal(2, ce.RetryAfter)
	}
}
