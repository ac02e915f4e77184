package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/flume/pkg/adapters/redis"
)

func TestRedisLocker_LockUnlock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "doubler", 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, unlock)

	assert.True(t, mr.Exists("test:lock:doubler"), "Lock key should be set in Redis")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:doubler"), "Lock key should be removed after unlock")
}

func TestRedisLocker_Contention(t *testing.T) {
	mr, client := newClient(t)
	locker1 := redis.NewLocker(client, "test:")
	locker2 := redis.NewLocker(client, "test:") // Same prefix -> contention
	ctx := context.Background()

	unlock1, err := locker1.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)

	ctxTimeout, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	_, err = locker2.Lock(ctxTimeout, "shared", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock1(ctx))

	unlock2, err := locker2.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)
	defer func() { _ = unlock2(ctx) }()

	assert.True(t, mr.Exists("test:lock:shared"))
}

func TestRedisLocker_StaleUnlockKeepsNewHolder(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlockOld, err := locker.Lock(ctx, "job", time.Second)
	require.NoError(t, err)

	// The first lock expires and someone else takes it.
	mr.FastForward(2 * time.Second)
	unlockNew, err := locker.Lock(ctx, "job", time.Minute)
	require.NoError(t, err)

	require.NoError(t, unlockOld(ctx))
	assert.True(t, mr.Exists("test:lock:job"), "stale unlock must not release the new holder")

	require.NoError(t, unlockNew(ctx))
	assert.False(t, mr.Exists("test:lock:job"))
}

func TestRedisLocker_RenewsWhileHeld(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "long-run", 200*time.Millisecond)
	require.NoError(t, err)

	// Let the expiry run down, then wait for the holder to push it back.
	for range 3 {
		mr.FastForward(150 * time.Millisecond)
		require.True(t, mr.Exists("test:lock:long-run"))
		require.Eventually(t, func() bool {
			return mr.TTL("test:lock:long-run") > 100*time.Millisecond
		}, 2*time.Second, 10*time.Millisecond, "lock should be extended while held")
	}
	assert.True(t, mr.Exists("test:lock:long-run"), "held past three times its ttl")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:long-run"))
	require.NoError(t, unlock(ctx), "unlocking twice is harmless")
}

func TestRedisLocker_StopsRenewingLostLock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlockOld, err := locker.Lock(ctx, "job", 200*time.Millisecond)
	require.NoError(t, err)
	defer func() { _ = unlockOld(ctx) }()

	// Another holder overwrites the key; the old holder must not extend it.
	mr.Set("test:lock:job", "someone-else")
	mr.SetTTL("test:lock:job", time.Second)
	time.Sleep(250 * time.Millisecond)

	assert.Equal(t, time.Second, mr.TTL("test:lock:job"))
}
