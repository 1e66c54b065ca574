package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeKeyJoinsWithColons(t *testing.T) {
	assert.Equal(t, "questions:https://example.com/a", MakeKey("questions", "https://example.com/a"))
}

func TestDisabledCacheGetIsAlwaysMiss(t *testing.T) {
	c := DisabledCache{}
	_, found, err := c.Get(context.Background(), "anything")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDisabledCacheSetNeverErrors(t *testing.T) {
	c := DisabledCache{}
	assert.NoError(t, c.Set(context.Background(), "k", []byte("v"), 0))
	assert.NoError(t, c.Delete(context.Background(), "k"))
	assert.NoError(t, c.DeletePattern(context.Background(), "prefix"))
}
