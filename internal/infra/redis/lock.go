// File: internal/infra/redis/lock.go
package redis

import (
	"context"
	"fmt"
	"time"

	"telegram-tiktok-checker/internal/domain"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Locker guards long-running work per key. The checker uses it to keep a user
// down to one bulk run at a time.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

type RedisLocker struct {
	cli *redis.Client
}

func NewLocker(c *Client) *RedisLocker {
	return &RedisLocker{cli: c.cli}
}

// TryLock does not wait on contention. A held key means the user already has
// a run going, which is an answer, not a reason to retry.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := l.cli.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return "", domain.ErrBulkActive
	}
	return token, nil
}

// Release only when the token still owns the key, so a run that outlived its
// TTL cannot free a successor's lock.
var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	_, err := luaUnlock.Run(ctx, l.cli, []string{key}, token).Result()
	return err
}

func BulkLockKey(tgID int64) string {
	return fmt.Sprintf("bulk_lock:%d", tgID)
}
