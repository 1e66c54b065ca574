package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpensAfterFailMaxConsecutiveFailures(t *testing.T) {
	b := New("llm", 5, time.Minute)
	for i := 0; i < 5; i++ {
		require.True(t, b.Allow())
		b.RecordFailure()
	}
	assert.Equal(t, Open, b.State())
	assert.False(t, b.Allow())
}

func TestHalfOpenAdmitsSingleProbeAfterResetTimeout(t *testing.T) {
	b := New("llm", 1, 10*time.Millisecond)
	require.True(t, b.Allow())
	b.RecordFailure()
	assert.Equal(t, Open, b.State())

	time.Sleep(15 * time.Millisecond)
	assert.True(t, b.Allow())
	assert.False(t, b.Allow()) // second concurrent probe refused
}

func TestSuccessInHalfOpenClosesBreaker(t *testing.T) {
	b := New("llm", 1, 10*time.Millisecond)
	b.RecordFailure()
	time.Sleep(15 * time.Millisecond)
	require.True(t, b.Allow())
	b.RecordSuccess()
	assert.Equal(t, Closed, b.State())
}

func TestFailureInHalfOpenReopens(t *testing.T) {
	b := New("llm", 1, 10*time.Millisecond)
	b.RecordFailure()
	time.Sleep(15 * time.Millisecond)
	require.True(t, b.Allow())
	b.RecordFailure()
	assert.Equal(t, Open, b.State())
}

func TestRetrySucceedsWithinMaxAttempts(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), RetryOptions{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}, nil, func(ctx context.Context) error {
		attempts++
		if attempts < 2 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestRetryStopsWhenShouldRetryReturnsFalse(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), DefaultRetryOptions(), func(error) bool { return false }, func(ctx context.Context) error {
		attempts++
		return errors.New("permanent")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}
