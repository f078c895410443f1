package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the caching interface. All cache operations go through here.
// Implementations must be safe for concurrent use.
type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error)
	AppendToStream(ctx context.Context, stream string, fields map[string]any) error
}

// RedisCache implements the Cache interface using go-redis/v9.
type RedisCache struct {
	client    *redis.Client
	streamCap int64
}

// Option configures a RedisCache.
type Option func(*RedisCache)

// WithStreamCap trims streams to roughly n entries on append. Zero disables trimming.
func WithStreamCap(n int64) Option {
	return func(c *RedisCache) { c.streamCap = n }
}

// NewRedisCache creates a new RedisCache from a Redis URL.
func NewRedisCache(redisURL string, opts ...Option) (*RedisCache, error) {
	ropts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	c := &RedisCache{client: redis.NewClient(ropts), streamCap: 100000}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *RedisCache) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, expiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// AppendToStream adds one entry to a Redis stream with XADD.
func (c *RedisCache) AppendToStream(ctx context.Context, stream string, fields map[string]any) error {
	args := &redis.XAddArgs{
		Stream: stream,
		Values: fields,
	}
	if c.streamCap > 0 {
		args.MaxLen = c.streamCap
		args.Approx = true
	}
	return c.client.XAdd(ctx, args).Err()
}

// ReadStream returns up to count entries of a stream, oldest first.
func (c *RedisCache) ReadStream(ctx context.Context, stream string, count int64) ([]map[string]any, error) {
	msgs, err := c.client.XRangeN(ctx, stream, "-", "+", count).Result()
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Values)
	}
	return out, nil
}

var _ Cache = (*RedisCache)(nil)
