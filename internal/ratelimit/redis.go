package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rentacar-backend/internal/logger"
)

// counterStore is the subset of go-redis commands the limiter needs.
type counterStore interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	ExpireNX(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisAttemptLimiter allows at most maxAttempts per key within window. The
// window starts at the first attempt and is not sliding. Every attempt sets the
// window with EXPIRE NX (Redis 7+), so a counter left without a TTL by a failed
// EXPIRE gets one on the next attempt.
type RedisAttemptLimiter struct {
	store       counterStore
	prefix      string
	maxAttempts int64
	window      time.Duration
}

func NewRedisAttemptLimiter(client redis.Cmdable, prefix string, maxAttempts int, window time.Duration) *RedisAttemptLimiter {
	return newAttemptLimiter(client, prefix, maxAttempts, window)
}

func newAttemptLimiter(store counterStore, prefix string, maxAttempts int, window time.Duration) *RedisAttemptLimiter {
	return &RedisAttemptLimiter{
		store:       store,
		prefix:      prefix,
		maxAttempts: int64(maxAttempts),
		window:      window,
	}
}

func (l *RedisAttemptLimiter) key(key string) string {
	return l.prefix + key
}

func (l *RedisAttemptLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.key(key)
	logger.ExternalServiceCall("redis", "INCR", "key", k)
	count, err := l.store.Incr(ctx, k).Result()
	if err != nil {
		logger.ExternalServiceResult("redis", "INCR", err)
		return false, fmt.Errorf("count attempt: %w", err)
	}
	if err := l.store.ExpireNX(ctx, k, l.window).Err(); err != nil {
		logger.ExternalServiceResult("redis", "EXPIRE NX", err)
		return false, fmt.Errorf("set attempt window: %w", err)
	}
	logger.ExternalServiceResult("redis", "INCR", nil, "key", k, "count", count)
	return count <= l.maxAttempts, nil
}

func (l *RedisAttemptLimiter) Reset(ctx context.Context, key string) error {
	if err := l.store.Del(ctx, l.key(key)).Err(); err != nil {
		return fmt.Errorf("reset attempts: %w", err)
	}
	return nil
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// NewRedisClient connects to a single Redis node and pings it.
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("no Redis address provided")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
