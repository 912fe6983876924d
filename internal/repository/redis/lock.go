package redis

import (
	"context"
	"fmt"
	"time"

	"adaptiveCreative/business/batch"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still holds our token, so an
// expired holder never frees a lock someone else acquired since.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type BrandLocker struct {
	client *redis.Client
}

var _ batch.Locker = (*BrandLocker)(nil)

func NewBrandLocker(client *redis.Client) *BrandLocker {
	return &BrandLocker{client: client}
}

func brandLockKey(brandID string) string {
	return fmt.Sprintf("lock:batch:brand:%s", brandID)
}

func (l *BrandLocker) Acquire(ctx context.Context, brandID string, ttl time.Duration) (func(context.Context) error, bool, error) {
	key := brandLockKey(brandID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire brand lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release brand lock: %w", err)
		}
		return nil
	}
	return release, true, nil
}
