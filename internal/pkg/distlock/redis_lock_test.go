package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisLockMutualExclusion(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	first := NewRedisLock(client, "queue-run", time.Minute)
	second := NewRedisLock(client, "queue-run", time.Minute)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must not acquire a held lock")

	require.NoError(t, first.Release(ctx))

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "lock must be free after release")
}

func TestRedisLockReleaseOnlyOwn(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	owner := NewRedisLock(client, "queue-run", time.Minute)
	thief := NewRedisLock(client, "queue-run", time.Minute)

	ok, err := owner.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// Releasing a lock we don't own must be a no-op.
	require.NoError(t, thief.Release(ctx))

	ok, err = thief.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "owner's lock must survive a foreign release")
}
