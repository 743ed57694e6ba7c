package common

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const (
	// BlogListTTL bounds staleness of paginated list responses.
	BlogListTTL = 5 * time.Minute
	// BlogDetailTTL applies to single-post and stats responses.
	BlogDetailTTL = 10 * time.Minute
)

// Cache holds serialized JSON responses keyed by their query parameters. The
// store stays authoritative: write paths invalidate affected entries and the
// TTL is only a fallback bound. Implementations swallow their own errors; a
// failed Get is a miss, a failed Set or Delete is logged, never surfaced.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
	// DeletePattern removes every key matching a glob pattern such as
	// "blogs:list:*". List keys are parameterized over arbitrary filter and
	// page combinations, so write paths cannot enumerate them.
	DeletePattern(ctx context.Context, pattern string)
}

func CacheKeyBlog(id int) string {
	return fmt.Sprintf("blogs:id:%d", id)
}

func CacheKeyBlogList(page, limit int, tag, author, search string) string {
	return fmt.Sprintf("blogs:list:p%d:l%d:t%s:a%s:s%s", page, limit, tag, author, search)
}

func CacheKeyBlogListPattern() string {
	return "blogs:list:*"
}

func CacheKeyStats() string {
	return "blogs:stats"
}

func CacheKeyComments(blogID, page, limit int) string {
	return fmt.Sprintf("comments:%d:p%d:l%d", blogID, page, limit)
}

func CacheKeyCommentsPattern(blogID int) string {
	return fmt.Sprintf("comments:%d:*", blogID)
}

// RedisCache is the production cache backend.
type RedisCache struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisCache(addr, password string, logger *slog.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	return &RedisCache{client: client, logger: logger}
}

// Ping checks connectivity. A failure is not fatal to the caller; reads
// degrade to the store path.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Error("cache get failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return nil, false
	}

	return data, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	err := c.client.Set(ctx, key, value, ttl).Err()
	if err != nil {
		c.logger.Error("cache set failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}

	err := c.client.Del(ctx, keys...).Err()
	if err != nil {
		c.logger.Error("cache delete failed", slog.String("error", err.Error()))
	}
}

func (c *RedisCache) DeletePattern(ctx context.Context, pattern string) {
	// KEYS blocks the server on large keyspaces; walk SCAN pages instead
	var keys []string
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Error("cache pattern scan failed", slog.String("pattern", pattern), slog.String("error", err.Error()))
		return
	}

	c.Delete(ctx, keys...)
}

// MemoryCache is the in-process backend used when no redis address is
// configured, and by tests.
type MemoryCache struct {
	c *gocache.Cache
}

func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{c: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := c.c.Get(key)
	if !ok {
		return nil, false
	}

	data, ok := v.([]byte)
	return data, ok
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	c.c.Set(key, value, ttl)
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) {
	for _, key := range keys {
		c.c.Delete(key)
	}
}

func (c *MemoryCache) DeletePattern(_ context.Context, pattern string) {
	for key := range c.c.Items() {
		if ok, _ := path.Match(pattern, key); ok {
			c.c.Delete(key)
		}
	}
}

func (c *MemoryCache) Flush() {
	c.c.Flush()
}
