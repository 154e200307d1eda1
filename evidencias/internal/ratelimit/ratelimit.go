package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/transvepo/evidencias-stack/evidencias/internal/metrics"
)

// RateLimiter decides whether a request identified by key may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Close() error
}

// slidingWindow keeps one sorted-set entry per admitted request, scored by
// its timestamp, and admits a request only while the window holds fewer than
// limit entries.
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local ttl_ms = tonumber(ARGV[4])
	local member = ARGV[5]

	redis.call('ZREMRANGEBYSCORE', key, 0, window_start)

	local current = redis.call('ZCARD', key)
	if current < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, ttl_ms)
		return 1
	end
	return 0
`)

// RedisRateLimiter is a sliding-window limiter shared by every replica that
// talks to the same redis.
type RedisRateLimiter struct {
	client    *redis.Client
	limit     int64
	window    time.Duration
	keyPrefix string
	now       func() time.Time
	seq       atomic.Uint64
}

// Option customises a RedisRateLimiter.
type Option func(*RedisRateLimiter)

// WithKeyPrefix namespaces the redis keys. Default "ratelimit:whatsapp:".
func WithKeyPrefix(prefix string) Option {
	return func(r *RedisRateLimiter) { r.keyPrefix = prefix }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *RedisRateLimiter) { r.now = now }
}

// MinWindow is the shortest supported sliding window.
const MinWindow = time.Millisecond

// NewRedisRateLimiter wraps an existing client.
func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration, opts ...Option) (*RedisRateLimiter, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("rate limit must be positive, got %d", limit)
	}
	// Keys expire after window in milliseconds; anything shorter would expire at once.
	if window < MinWindow {
		return nil, fmt.Errorf("rate limit window must be at least %s, got %s", MinWindow, window)
	}

	r := &RedisRateLimiter{
		client:    client,
		limit:     int64(limit),
		window:    window,
		keyPrefix: "ratelimit:whatsapp:",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// NewRedisRateLimiterFromURL dials redis and verifies the connection.
func NewRedisRateLimiterFromURL(ctx context.Context, redisURL string, limit int, window time.Duration, opts ...Option) (*RedisRateLimiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	limiter, err := NewRedisRateLimiter(client, limit, window, opts...)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return limiter, nil
}

// Allow implements sliding window rate limiting using Redis.
func (r *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := r.now().UnixNano()
	windowStart := now - r.window.Nanoseconds()
	member := strconv.FormatInt(now, 10) + "-" + strconv.FormatUint(r.seq.Add(1), 10)

	result, err := slidingWindow.Run(ctx, r.client,
		[]string{r.keyPrefix + key},
		now, windowStart, r.limit, r.window.Milliseconds(), member,
	).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	allowed := result == 1
	if !allowed {
		metrics.RateLimitHits.Inc()
	}
	return allowed, nil
}

func (r *RedisRateLimiter) Close() error {
	return r.client.Close()
}

// NoOpRateLimiter always allows requests (rate limiting disabled)
type NoOpRateLimiter struct{}

func (n *NoOpRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return true, nil
}

func (n *NoOpRateLimiter) Close() error {
	return nil
}
