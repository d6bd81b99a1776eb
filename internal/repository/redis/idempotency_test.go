package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient connects to the Redis named by TEST_REDIS_ADDR. Skips
// the test when no server is reachable.
func newTestClient(t *testing.T) *goredis.Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	rdb := goredis.NewClient(&goredis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		t.Skipf("skipping: could not connect to redis: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })

	return rdb
}

func TestMarkOnce(t *testing.T) {
	rdb := newTestClient(t)
	s := NewIdempotencyStore(rdb, time.Minute)
	ctx := context.Background()

	key := KeyReminderSent(uuid.NewString())

	first, err := s.MarkOnce(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := s.MarkOnce(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, second, "mark already set")

	// A different key is independent.
	other, err := s.MarkOnce(ctx, KeyReminderSent(uuid.NewString()), time.Minute)
	require.NoError(t, err)
	assert.True(t, other)
}

func TestIdempotencyLockAndResult(t *testing.T) {
	rdb := newTestClient(t)
	s := NewIdempotencyStore(rdb, time.Minute)
	ctx := context.Background()

	key := KeyIdemBooking(uuid.NewString())

	locked, err := s.AcquireLock(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, locked)

	// Lock held: no result yet, second acquire fails.
	_, ok, err := s.GetResult(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	locked, err = s.AcquireLock(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, locked)

	require.NoError(t, s.SaveResult(ctx, key, `{"id":"x"}`))

	payload, ok, err := s.GetResult(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":"x"}`, payload)

	require.NoError(t, s.Release(ctx, key))

	_, ok, err = s.GetResult(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
