// Package lockout is the Redis-backed login-attempt lockout, grounded on
// the teacher's internal/session/redis.go CheckLockout/RecordFailedAttempt
// pair. Session and refresh-token bookkeeping from that file has no
// counterpart here — this protocol has no sessions, only a per-connection
// two-step login — so only the lockout half is adapted.
package lockout

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Threshold is the number of failed request-8 or request-22 attempts
	// for one account id before it locks.
	Threshold = 5
	// TTL is both the failure-counter window and the lock duration.
	TTL = 15 * time.Minute
)

// Manager checks and records failed authentication attempts per account id.
type Manager struct {
	client *redis.Client
}

// NewManager wraps an already-constructed Redis client.
func NewManager(client *redis.Client) *Manager {
	return &Manager{client: client}
}

// Locked reports whether id is currently locked out. A Redis error is
// treated as "not locked" — lockout is a defense-in-depth layer, not the
// primary authentication gate, and must not itself become a denial of
// service if Redis is unavailable.
func (m *Manager) Locked(ctx context.Context, id string) bool {
	val, err := m.client.Get(ctx, lockKey(id)).Result()
	if err != nil {
		return false
	}
	return val == "locked"
}

// RecordFailure increments id's failure counter and locks it once
// Threshold is reached.
func (m *Manager) RecordFailure(ctx context.Context, id string) {
	key := countKey(id)
	count, err := m.client.Incr(ctx, key).Result()
	if err != nil {
		return
	}
	if count == 1 {
		m.client.Expire(ctx, key, TTL)
	}
	if count >= Threshold {
		m.client.Set(ctx, lockKey(id), "locked", TTL)
		m.client.Del(ctx, key)
	}
}

// Clear removes any failure counter and lock for id, called on successful
// authentication.
func (m *Manager) Clear(ctx context.Context, id string) {
	m.client.Del(ctx, countKey(id), lockKey(id))
}

func countKey(id string) string { return fmt.Sprintf("cctv:lockout_count:%s", id) }
func lockKey(id string) string  { return fmt.Sprintf("cctv:lockout:%s", id) }
