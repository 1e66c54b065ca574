// Package cache implements the cache layer (C10): get/set/delete/
// delete_pattern/make_key over Redis, with a graceful disabled mode
// that no-ops every operation. Grounded on saaskit's pkg/redis
// (connect-with-retry, UniversalClient-typed healthcheck) generalized
// from a connection helper into the key/value cache contract the spec
// needs.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"contentproc/internal/apperrors"
)

const (
	// TTLQuestionsByURL is the default TTL for get_questions_by_url results.
	TTLQuestionsByURL = 3600 * time.Second
	// TTLSimilarityResults is the default TTL for find_similar results.
	TTLSimilarityResults = 7200 * time.Second
)

var ErrMiss = errors.New("cache miss")

// Cache is the operation set (§4.10). Values are opaque byte strings;
// serialization policy is the caller's.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, prefix string) error
}

// MakeKey builds a namespace-qualified colon-separated key, e.g.
// MakeKey("questions", url) -> "questions:<url>".
func MakeKey(parts ...string) string {
	return strings.Join(parts, ":")
}

// RedisCache is the live backend, grounded on saaskit's Connect-with-
// retry client setup.
type RedisCache struct {
	client redis.UniversalClient
}

func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

// Connect establishes a Redis connection, pinging up to retryAttempts
// times with a fixed retryInterval between attempts, mirroring
// saaskit's pkg/redis.Connect.
func Connect(ctx context.Context, url string, retryAttempts int, retryInterval time.Duration) (redis.UniversalClient, error) {
	if url == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "empty redis connection URL")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, "failed to parse redis connection URL", err)
	}

	var lastErr error
	for i := 0; i < retryAttempts; i++ {
		client := redis.NewClient(opt)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			return client, nil
		}
		_ = client.Close()
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, apperrors.Wrap(apperrors.CodeTimeout, "redis not ready", ctx.Err())
		case <-time.After(retryInterval):
		}
	}
	return nil, apperrors.Wrap(apperrors.CodeServiceUnavailable, "redis not ready", lastErr)
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.CodeInternal, "cache get failed", err)
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "cache set failed", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "cache delete failed", err)
	}
	return nil
}

// DeletePattern deletes every key whose name starts with prefix,
// scanning rather than KEYS to avoid blocking Redis on a large keyspace.
func (c *RedisCache) DeletePattern(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "cache scan failed", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "cache pattern delete failed", err)
	}
	return nil
}

// Healthcheck mirrors saaskit's redis.Healthcheck helper.
func (c *RedisCache) Healthcheck(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return apperrors.Wrap(apperrors.CodeServiceUnavailable, "redis healthcheck failed", err)
	}
	return nil
}

var _ Cache = (*RedisCache)(nil)

// DisabledCache is the graceful-disable mode: every operation is a
// no-op that reports a miss/false without raising, per §4.10.
type DisabledCache struct{}

func (DisabledCache) Get(ctx context.Context, key string) ([]byte, bool, error) { return nil, false, nil }
func (DisabledCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}
func (DisabledCache) Delete(ctx context.Context, key string) error        { return nil }
func (DisabledCache) DeletePattern(ctx context.Context, prefix string) error { return nil }

var _ Cache = DisabledCache{}
