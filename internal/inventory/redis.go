package inventory

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"

	"ms-booking/internal/models"
)

const capacityKeyPrefix = "event_capacity:"

// reserveScript atomically checks remaining capacity and decrements it. A
// plain GET-then-DECRBY would let two concurrent bookings both pass the check
// and overbook the event; the script closes that window server-side.
var reserveScript = redis.NewScript(`
local cap = redis.call("GET", KEYS[1])
if not cap then
  return -1
end
if tonumber(cap) < tonumber(ARGV[1]) then
  return -2
end
return redis.call("DECRBY", KEYS[1], ARGV[1])
`)

// RedisInventory tracks remaining capacity per event as a Redis counter.
type RedisInventory struct {
	Client *redis.Client
}

func NewRedisInventory(client *redis.Client) *RedisInventory {
	return &RedisInventory{Client: client}
}

func capacityKey(eventID string) string {
	return capacityKeyPrefix + eventID
}

// Capacity returns the remaining capacity for an event.
func (r *RedisInventory) Capacity(ctx context.Context, eventID string) (int, error) {
	val, err := r.Client.Get(ctx, capacityKey(eventID)).Result()
	if err == redis.Nil {
		return 0, models.ErrEventNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("inventory get: %w", err)
	}
	capacity, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid capacity value %q for event %s", val, eventID)
	}
	return capacity, nil
}

// Reserve takes count units of capacity atomically. It returns false when the
// event is unknown or has fewer than count units left; no partial reservation
// is retained in that case.
func (r *RedisInventory) Reserve(ctx context.Context, eventID string, count int) (bool, error) {
	res, err := reserveScript.Run(ctx, r.Client, []string{capacityKey(eventID)}, count).Int64()
	if err != nil {
		return false, fmt.Errorf("inventory reserve: %w", err)
	}
	return res >= 0, nil
}

// Release returns previously reserved units, compensating a failed booking.
func (r *RedisInventory) Release(ctx context.Context, eventID string, count int) error {
	err := r.Client.IncrBy(ctx, capacityKey(eventID), int64(count)).Err()
	if err != nil {
		return fmt.Errorf("inventory release: %w", err)
	}
	return nil
}

// SetCapacity seeds or resets an event's capacity.
func (r *RedisInventory) SetCapacity(ctx context.Context, eventID string, capacity int) error {
	return r.Client.Set(ctx, capacityKey(eventID), capacity, 0).Err()
}
