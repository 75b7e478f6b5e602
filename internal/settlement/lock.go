package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const lockKeyPrefix = "settlement_lock:"

// releaseScript deletes the lock only while it still holds the caller's token.
// A GET-then-DEL pair would let a lock that expires between the two calls take
// out a new holder's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock serializes settlement per user across all process instances. The
// TTL bounds how long a crashed holder can block a user; correctness under an
// expired lock still falls back to the ledger's conditional updates.
type RedisLock struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisLock(client *redis.Client, ttl time.Duration) *RedisLock {
	return &RedisLock{Client: client, TTL: ttl}
}

func lockKey(userID int64) string {
	return fmt.Sprintf("%s%d", lockKeyPrefix, userID)
}

// Acquire takes the user's settlement lock. The returned token identifies the
// holder so an expired lock is never released by a stale owner.
func (r *RedisLock) Acquire(ctx context.Context, userID int64) (string, bool, error) {
	token := uuid.NewString()
	ok, err := r.Client.SetNX(ctx, lockKey(userID), token, r.TTL).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

// Release frees the lock only if it is still held by the given token. An
// expired or stolen lock is left alone.
func (r *RedisLock) Release(ctx context.Context, userID int64, token string) error {
	return releaseScript.Run(ctx, r.Client, []string{lockKey(userID)}, token).Err()
}
