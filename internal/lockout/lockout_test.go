package lockout

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return NewManager(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestRecordFailureLocksAtThreshold(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	for i := 0; i < Threshold-1; i++ {
		m.RecordFailure(ctx, "alice")
		assert.False(t, m.Locked(ctx, "alice"))
	}
	m.RecordFailure(ctx, "alice")
	assert.True(t, m.Locked(ctx, "alice"))
}

func TestClearRemovesLock(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	for i := 0; i < Threshold; i++ {
		m.RecordFailure(ctx, "bob")
	}
	require.True(t, m.Locked(ctx, "bob"))

	m.Clear(ctx, "bob")
	assert.False(t, m.Locked(ctx, "bob"))
}

func TestLockoutIsPerAccount(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	for i := 0; i < Threshold; i++ {
		m.RecordFailure(ctx, "carol")
	}
	assert.True(t, m.Locked(ctx, "carol"))
	assert.False(t, m.Locked(ctx, "dave"))
}

func TestRedisUnavailableFailsOpen(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	m := NewManager(redis.NewClient(&redis.Options{Addr: addr}))
	assert.False(t, m.Locked(context.Background(), "erin"))
}
