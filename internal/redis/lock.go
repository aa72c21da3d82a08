package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireScheduleLock attempts to lock a schedule for the duration of an
// allocation decision. Returns true if the lock was acquired, false if
// another booking request holds it.
func (s *LockStore) AcquireScheduleLock(ctx context.Context, scheduleID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:schedule:%s", scheduleID)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseScheduleLock releases the lock for the given schedule.
func (s *LockStore) ReleaseScheduleLock(ctx context.Context, scheduleID string) error {
	key := fmt.Sprintf("lock:schedule:%s", scheduleID)

	return s.client.Del(ctx, key).Err()
}
