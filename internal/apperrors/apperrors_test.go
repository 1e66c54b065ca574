package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodedErrorStatusMapping(t *testing.T) {
	err := New(CodeRateLimit, "too many requests").WithRetryAfter(30)
	assert.Equal(t, http.StatusTooManyRequests, err.HTTPStatus())
	assert.Equal(t, 30, err.RetryAfter)
}

func TestWrapPreservesChainForErrorsAs(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	wrapped := fmt.Errorf("crawl failed: %w", Wrap(CodeNetwork, "crawl failed", cause))

	ce, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, CodeNetwork, ce.Code)
	assert.ErrorIs(t, wrapped, cause)
}

func TestStatusCodeDefaultsTo500ForPlainErrors(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusCode(errors.New("boom")))
}

func TestUnknownCodeDefaultsTo500(t *testing.T) {
	err := New(Code("made_up"), "x")
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus())
}
