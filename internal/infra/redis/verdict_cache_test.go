//go:build !integration

package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"telegram-tiktok-checker/internal/domain"
	"telegram-tiktok-checker/internal/domain/model"

	goredis "github.com/go-redis/redis/v8"
)

// fakeRedis is an in-memory RedisClient double.
type fakeRedis struct {
	values  map[string]string
	counts  map[string]int64
	expires map[string]time.Duration

	getErr error
	setErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		values:  make(map[string]string),
		counts:  make(map[string]int64),
		expires: make(map[string]time.Duration),
	}
}

func (f *fakeRedis) Ping(ctx context.Context) error { return nil }

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	switch v := value.(type) {
	case string:
		f.values[key] = v
	case []byte:
		f.values[key] = string(v)
	}
	f.expires[key] = expiration
	return nil
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeRedis) Incr(ctx context.Context, key string) (int64, error) {
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeRedis) Expire(ctx context.Context, key string, expiration time.Duration) error {
	f.expires[key] = expiration
	return nil
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
		delete(f.counts, k)
	}
	return nil
}

func (f *fakeRedis) Close() error { return nil }

var _ RedisClient = (*fakeRedis)(nil)

func TestVerdictCache(t *testing.T) {
	ctx := context.Background()

	t.Run("miss maps to ErrNotFound", func(t *testing.T) {
		cache := NewVerdictCache(newFakeRedis(), time.Hour)
		_, err := cache.Get(ctx, "ghost")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on miss, got %v", err)
		}
	})

	t.Run("hit rewrites source to cache", func(t *testing.T) {
		fake := newFakeRedis()
		cache := NewVerdictCache(fake, time.Hour)
		res := &model.CheckResult{Username: "charli", Status: model.StatusTaken, Source: model.SourceAPI}
		if err := cache.Store(ctx, res); err != nil {
			t.Fatalf("store: %v", err)
		}
		got, err := cache.Get(ctx, "charli")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Status != model.StatusTaken {
			t.Errorf("expected taken, got %s", got.Status)
		}
		if got.Source != model.SourceCache {
			t.Errorf("expected source rewritten to cache, got %s", got.Source)
		}
		if ttl := fake.expires[verdictKey("charli")]; ttl != time.Hour {
			t.Errorf("expected TTL 1h on stored verdict, got %v", ttl)
		}
	})

	t.Run("error verdicts are never stored", func(t *testing.T) {
		fake := newFakeRedis()
		cache := NewVerdictCache(fake, time.Hour)
		res := &model.CheckResult{Username: "flaky", Status: model.StatusError, Source: model.SourceHTML}
		if err := cache.Store(ctx, res); err != nil {
			t.Fatalf("store: %v", err)
		}
		if _, ok := fake.values[verdictKey("flaky")]; ok {
			t.Error("error verdict must not reach redis")
		}
	})

	t.Run("invalidate removes the verdict", func(t *testing.T) {
		fake := newFakeRedis()
		cache := NewVerdictCache(fake, time.Hour)
		_ = cache.Store(ctx, &model.CheckResult{Username: "charli", Status: model.StatusAvailable})
		if err := cache.Invalidate(ctx, "charli"); err != nil {
			t.Fatalf("invalidate: %v", err)
		}
		if _, err := cache.Get(ctx, "charli"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected miss after invalidate, got %v", err)
		}
	})
}

func TestRateLimiterAllow(t *testing.T) {
	ctx := context.Background()

	t.Run("allows up to the limit then rejects", func(t *testing.T) {
		limiter := NewRateLimiter(newFakeRedis())
		key := UserCommandKey(42, "check")
		for i := 0; i < 3; i++ {
			ok, err := limiter.Allow(ctx, key, 3, time.Minute)
			if err != nil {
				t.Fatalf("allow #%d: %v", i+1, err)
			}
			if !ok {
				t.Fatalf("request #%d should pass", i+1)
			}
		}
		ok, err := limiter.Allow(ctx, key, 3, time.Minute)
		if err != nil {
			t.Fatalf("allow #4: %v", err)
		}
		if ok {
			t.Error("request #4 should be rejected")
		}
	})

	t.Run("first hit arms the window expiry", func(t *testing.T) {
		fake := newFakeRedis()
		limiter := NewRateLimiter(fake)
		key := UserCommandKey(7, "bulk")
		if _, err := limiter.Allow(ctx, key, 1, time.Minute); err != nil {
			t.Fatalf("allow: %v", err)
		}
		if fake.expires[key] != time.Minute {
			t.Errorf("expected expiry set to the window, got %v", fake.expires[key])
		}
	})
}
