package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis gates concurrent booking attempts on the same table/date: the first
// writer takes a short-lived lock, everyone else fails fast with a conflict
// instead of piling onto the database transaction.
type Redis struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Redis{Client: client, TTL: ttl}
}

func slotKey(tableID, date string) string {
	return fmt.Sprintf("table_lock:%s:%s", tableID, date)
}

// LockSlot takes the (table, date) lock for ownerID. Returns false when
// another booking holds it. The TTL bounds how long a crashed writer can
// keep the slot blocked.
func (r *Redis) LockSlot(ctx context.Context, tableID, date, ownerID string) (bool, error) {
	return r.Client.SetNX(ctx, slotKey(tableID, date), ownerID, r.TTL).Result()
}

// AcquireSweepLease takes the cluster-wide sweep lease so only one replica
// runs the auto-complete pass per interval. The lease is never released
// explicitly; it expires on its own, which also rate-limits the sweep.
func (r *Redis) AcquireSweepLease(ctx context.Context, ownerID string, ttl time.Duration) (bool, error) {
	return r.Client.SetNX(ctx, "sweep_lease", ownerID, ttl).Result()
}

// UnlockSlot releases the lock, but only if ownerID still holds it.
func (r *Redis) UnlockSlot(ctx context.Context, tableID, date, ownerID string) error {
	key := slotKey(tableID, date)
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already expired
	}
	if err != nil {
		return err
	}
	if val == ownerID {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}
