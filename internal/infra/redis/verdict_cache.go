package redis

import (
	"context"
	"encoding/json"
	"time"

	"telegram-tiktok-checker/internal/domain"
	"telegram-tiktok-checker/internal/domain/model"
	"telegram-tiktok-checker/internal/domain/ports/repository"
)

// Compile-time check
var _ repository.VerdictCacheRepository = (*VerdictCache)(nil)

// VerdictCache keeps recent check verdicts per canonical username so repeat
// lookups skip TikTok entirely. Only definitive verdicts are stored; error
// verdicts would mask upstream recovery.
type VerdictCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewVerdictCache(client RedisClient, ttl time.Duration) *VerdictCache {
	return &VerdictCache{
		client: client,
		ttl:    ttl,
	}
}

func verdictKey(username string) string { return "verdict:" + username }

func (c *VerdictCache) Store(ctx context.Context, res *model.CheckResult) error {
	if res == nil || res.Status == model.StatusError {
		return nil
	}
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, verdictKey(res.Username), data, c.ttl)
}

// Get returns the cached verdict with Source rewritten to cache, or
// domain.ErrNotFound on a miss.
func (c *VerdictCache) Get(ctx context.Context, username string) (*model.CheckResult, error) {
	data, err := c.client.Get(ctx, verdictKey(username))
	if err != nil {
		if IsNil(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var res model.CheckResult
	if err := json.Unmarshal([]byte(data), &res); err != nil {
		return nil, err
	}
	res.Source = model.SourceCache
	return &res, nil
}

func (c *VerdictCache) Invalidate(ctx context.Context, username string) error {
	return c.client.Del(ctx, verdictKey(username))
}
