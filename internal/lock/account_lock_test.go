package lock

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	client.FlushDB(ctx)

	t.Cleanup(func() {
		client.FlushDB(ctx)
		client.Close()
	})

	return client
}

func TestManager_Acquire_MutualExclusion(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	manager := NewManager(client, 10*time.Second, 2*time.Second)

	release, err := manager.Acquire(ctx, 42)
	require.NoError(t, err)

	_, err = manager.Acquire(ctx, 42)
	assert.ErrorIs(t, err, ErrNotAcquired)

	release(ctx)

	release2, err := manager.Acquire(ctx, 42)
	require.NoError(t, err)
	release2(ctx)
}

func TestManager_Acquire_IndependentKeys(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	manager := NewManager(client, 10*time.Second, time.Second)

	release1, err := manager.Acquire(ctx, 1)
	require.NoError(t, err)
	defer release1(ctx)

	release2, err := manager.Acquire(ctx, 2)
	require.NoError(t, err)
	defer release2(ctx)
}

func TestManager_Release_OwnershipChecked(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	manager := NewManager(client, 50*time.Millisecond, time.Second)

	release, err := manager.Acquire(ctx, 7)
	require.NoError(t, err)

	// Let the first holder's TTL lapse, then let a second holder take over.
	time.Sleep(100 * time.Millisecond)

	release2, err := manager.Acquire(ctx, 7)
	require.NoError(t, err)

	// Stale release must not drop the new holder's lock.
	release(ctx)

	val, err := client.Get(ctx, lockKey(7)).Result()
	require.NoError(t, err)
	assert.NotEmpty(t, val)

	release2(ctx)
}

func TestManager_Acquire_WaitsForRelease(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	manager := NewManager(client, 10*time.Second, 5*time.Second)

	release, err := manager.Acquire(ctx, 9)
	require.NoError(t, err)

	go func() {
		time.Sleep(1500 * time.Millisecond)
		release(ctx)
	}()

	start := time.Now()
	release2, err := manager.Acquire(ctx, 9)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), time.Second)
	release2(ctx)
}
