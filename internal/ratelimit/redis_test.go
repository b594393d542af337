package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore counts in memory and records expirations. The first
// failExpires EXPIRE calls fail.
type memoryStore struct {
	counts      map[string]int64
	expires     map[string]time.Duration
	err         error
	failExpires int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{counts: map[string]int64{}, expires: map[string]time.Duration{}}
}

func (s *memoryStore) Incr(ctx context.Context, key string) *redis.IntCmd {
	if s.err != nil {
		return redis.NewIntResult(0, s.err)
	}
	s.counts[key]++
	return redis.NewIntResult(s.counts[key], nil)
}

func (s *memoryStore) ExpireNX(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	if s.failExpires > 0 {
		s.failExpires--
		return redis.NewBoolResult(false, errors.New("i/o timeout"))
	}
	if _, ok := s.expires[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	s.expires[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (s *memoryStore) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(s.counts, k)
		delete(s.expires, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestRedisAttemptLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("Allows up to the limit", func(t *testing.T) {
		store := newMemoryStore()
		limiter := newAttemptLimiter(store, "attempts:", 3, 15*time.Minute)

		for i := 0; i < 3; i++ {
			ok, err := limiter.Allow(ctx, "rent-1")
			require.NoError(t, err)
			assert.True(t, ok)
		}
		ok, err := limiter.Allow(ctx, "rent-1")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 15*time.Minute, store.expires["attempts:rent-1"])

		ok, err = limiter.Allow(ctx, "rent-2")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Reset clears the counter", func(t *testing.T) {
		store := newMemoryStore()
		limiter := newAttemptLimiter(store, "attempts:", 1, time.Minute)

		ok, _ := limiter.Allow(ctx, "rent-1")
		assert.True(t, ok)
		ok, _ = limiter.Allow(ctx, "rent-1")
		assert.False(t, ok)

		require.NoError(t, limiter.Reset(ctx, "rent-1"))
		ok, err := limiter.Allow(ctx, "rent-1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Failed expire is repaired by the next attempt", func(t *testing.T) {
		store := newMemoryStore()
		store.failExpires = 1
		limiter := newAttemptLimiter(store, "attempts:", 3, 15*time.Minute)

		ok, err := limiter.Allow(ctx, "rent-1")
		assert.False(t, ok)
		assert.ErrorContains(t, err, "set attempt window")
		_, hasTTL := store.expires["attempts:rent-1"]
		assert.False(t, hasTTL)

		ok, err = limiter.Allow(ctx, "rent-1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 15*time.Minute, store.expires["attempts:rent-1"])

		for i := 0; i < 3; i++ {
			_, err = limiter.Allow(ctx, "rent-1")
			require.NoError(t, err)
		}
		assert.Equal(t, int64(5), store.counts["attempts:rent-1"])
		assert.Equal(t, 15*time.Minute, store.expires["attempts:rent-1"])
	})

	t.Run("Later attempts keep the original window", func(t *testing.T) {
		store := newMemoryStore()
		limiter := newAttemptLimiter(store, "attempts:", 3, time.Minute)

		_, err := limiter.Allow(ctx, "rent-1")
		require.NoError(t, err)
		limiter.window = time.Hour
		_, err = limiter.Allow(ctx, "rent-1")
		require.NoError(t, err)
		assert.Equal(t, time.Minute, store.expires["attempts:rent-1"])
	})

	t.Run("Store error", func(t *testing.T) {
		store := newMemoryStore()
		store.err = errors.New("connection refused")
		limiter := newAttemptLimiter(store, "attempts:", 5, time.Minute)

		ok, err := limiter.Allow(ctx, "rent-1")
		assert.False(t, ok)
		assert.ErrorContains(t, err, "connection refused")
	})
}

func TestNewRedisClient_RequiresAddress(t *testing.T) {
	_, err := NewRedisClient(RedisConfig{})
	assert.Error(t, err)
}
