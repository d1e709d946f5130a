package redis

import (
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis backs the lock with miniredis so the tests need no real
// Redis server.
func setupTestRedis(t *testing.T) *Redis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client)
}

func TestLockDecisionExclusive(t *testing.T) {
	r := setupTestRedis(t)

	ok, err := r.LockDecision("UMB20251126071259", "token-a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.LockDecision("UMB20251126071259", "token-b")
	require.NoError(t, err)
	assert.False(t, ok, "second holder must not acquire a held lock")
}

func TestLockDecisionIndependentOrders(t *testing.T) {
	r := setupTestRedis(t)

	ok, err := r.LockDecision("UMB1", "token-a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.LockDecision("UMB2", "token-b")
	require.NoError(t, err)
	assert.True(t, ok, "locks on different orders are independent")
}

func TestUnlockDecisionReleasesForOwner(t *testing.T) {
	r := setupTestRedis(t)

	ok, err := r.LockDecision("UMB1", "token-a")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, r.UnlockDecision("UMB1", "token-a"))

	ok, err = r.LockDecision("UMB1", "token-b")
	require.NoError(t, err)
	assert.True(t, ok, "released lock is acquirable again")
}

func TestUnlockDecisionIgnoresForeignToken(t *testing.T) {
	r := setupTestRedis(t)

	ok, err := r.LockDecision("UMB1", "token-a")
	require.NoError(t, err)
	require.True(t, ok)

	// A stale holder must not release someone else's lock.
	require.NoError(t, r.UnlockDecision("UMB1", "token-stale"))

	ok, err = r.LockDecision("UMB1", "token-b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnlockDecisionExpiredLock(t *testing.T) {
	r := setupTestRedis(t)

	assert.NoError(t, r.UnlockDecision("UMB1", "token-a"), "unlocking a missing lock is a no-op")
}

func TestLockDecisionConcurrentAcquire(t *testing.T) {
	r := setupTestRedis(t)

	const holders = 8
	var wg sync.WaitGroup
	wins := make(chan string, holders)

	for i := 0; i < holders; i++ {
		wg.Add(1)
		token := fmt.Sprintf("token-%d", i)
		go func() {
			defer wg.Done()
			ok, err := r.LockDecision("UMB1", token)
			assert.NoError(t, err)
			if ok {
				wins <- token
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	assert.Equal(t, 1, count, "exactly one holder wins the lock")
}
