package common

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"
)

func setupTestCache(t *testing.T) (*MemoryCache, func()) {
	t.Helper()

	cache := NewMemoryCache(0)

	cleanup := func() {
		cache.Flush()
	}

	return cache, cleanup
}

func TestCache_SetGet(t *testing.T) {
	cache, cleanup := setupTestCache(t)
	defer cleanup()

	ctx := context.Background()

	cache.Set(ctx, CacheKeyBlog(1), []byte(`{"id":1}`), time.Minute)

	data, ok := cache.Get(ctx, CacheKeyBlog(1))
	if !ok {
		t.Fatal("expected key to be set")
	}
	if string(data) != `{"id":1}` {
		t.Errorf("expected cached payload to round-trip, got %s", data)
	}
}

func TestCache_GetMiss(t *testing.T) {
	cache, cleanup := setupTestCache(t)
	defer cleanup()

	if _, ok := cache.Get(context.Background(), CacheKeyBlog(42)); ok {
		t.Error("expected miss for absent key")
	}
}

func TestCache_Expiry(t *testing.T) {
	cache, cleanup := setupTestCache(t)
	defer cleanup()

	ctx := context.Background()

	cache.Set(ctx, CacheKeyStats(), []byte(`{}`), 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	if _, ok := cache.Get(ctx, CacheKeyStats()); ok {
		t.Error("expected entry to expire")
	}
}

func TestCache_Delete(t *testing.T) {
	cache, cleanup := setupTestCache(t)
	defer cleanup()

	ctx := context.Background()

	cache.Set(ctx, CacheKeyBlog(1), []byte(`{}`), time.Minute)
	cache.Delete(ctx, CacheKeyBlog(1))

	if _, ok := cache.Get(ctx, CacheKeyBlog(1)); ok {
		t.Error("expected key to be deleted")
	}
}

func TestCache_DeletePattern(t *testing.T) {
	cache, cleanup := setupTestCache(t)
	defer cleanup()

	ctx := context.Background()

	cache.Set(ctx, CacheKeyBlogList(1, 10, "", "", ""), []byte(`{}`), time.Minute)
	cache.Set(ctx, CacheKeyBlogList(2, 10, "go", "", ""), []byte(`{}`), time.Minute)
	cache.Set(ctx, CacheKeyBlog(1), []byte(`{}`), time.Minute)

	cache.DeletePattern(ctx, CacheKeyBlogListPattern())

	if _, ok := cache.Get(ctx, CacheKeyBlogList(1, 10, "", "", "")); ok {
		t.Error("expected first list key to be invalidated")
	}
	if _, ok := cache.Get(ctx, CacheKeyBlogList(2, 10, "go", "", "")); ok {
		t.Error("expected second list key to be invalidated")
	}
	if _, ok := cache.Get(ctx, CacheKeyBlog(1)); !ok {
		t.Error("expected detail key to survive list invalidation")
	}
}

func TestCache_DeletePatternComments(t *testing.T) {
	cache, cleanup := setupTestCache(t)
	defer cleanup()

	ctx := context.Background()

	cache.Set(ctx, CacheKeyComments(7, 1, 10), []byte(`{}`), time.Minute)
	cache.Set(ctx, CacheKeyComments(8, 1, 10), []byte(`{}`), time.Minute)

	cache.DeletePattern(ctx, CacheKeyCommentsPattern(7))

	if _, ok := cache.Get(ctx, CacheKeyComments(7, 1, 10)); ok {
		t.Error("expected comment keys for blog 7 to be invalidated")
	}
	if _, ok := cache.Get(ctx, CacheKeyComments(8, 1, 10)); !ok {
		t.Error("expected comment keys for blog 8 to survive")
	}
}

func TestRedisCache_DeletePattern(t *testing.T) {
	cache := NewRedisCache(TestRedis(t), "", slog.New(slog.NewTextHandler(os.Stdout, nil)))
	t.Cleanup(func() { cache.Close() })

	ctx := context.Background()

	if err := cache.Ping(ctx); err != nil {
		t.Fatalf("could not reach redis: %v", err)
	}

	// more keys than one scan page so invalidation has to walk the cursor
	for page := 1; page <= 150; page++ {
		cache.Set(ctx, CacheKeyBlogList(page, 10, "", "", ""), []byte(`{}`), time.Minute)
	}
	cache.Set(ctx, CacheKeyBlog(1), []byte(`{}`), time.Minute)

	cache.DeletePattern(ctx, CacheKeyBlogListPattern())

	for page := 1; page <= 150; page++ {
		if _, ok := cache.Get(ctx, CacheKeyBlogList(page, 10, "", "", "")); ok {
			t.Fatalf("expected list key for page %d to be invalidated", page)
		}
	}
	if _, ok := cache.Get(ctx, CacheKeyBlog(1)); !ok {
		t.Error("expected detail key to survive list invalidation")
	}
}
