package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaseStore_AcquireAndContention(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewLeaseStore(pool)
	ctx := context.Background()

	ok, err := store.TryAcquire(ctx, "ton:tonapi:addr1", "A", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "A should acquire free lease")

	ok, err = store.TryAcquire(ctx, "ton:tonapi:addr1", "B", 5*time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "B should be rejected while A holds the lease")

	// Self-reacquire extends the lease.
	ok, err = store.TryAcquire(ctx, "ton:tonapi:addr1", "A", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "A should reacquire its own lease")
}

func TestLeaseStore_ExpiredTakeover(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewLeaseStore(pool)
	ctx := context.Background()

	now := time.Now()
	store.now = func() time.Time { return now }

	ok, err := store.TryAcquire(ctx, "k", "A", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// Advance the store clock past expiry.
	store.now = func() time.Time { return now.Add(2 * time.Minute) }

	ok, err = store.TryAcquire(ctx, "k", "B", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "B should take over the expired lease")

	// A no longer owns the key.
	ok, err = store.Release(ctx, "k", "A")
	require.NoError(t, err)
	assert.False(t, ok, "release by previous owner should fail")
}

func TestLeaseStore_RenewAndRelease(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewLeaseStore(pool)
	ctx := context.Background()

	ok, err := store.TryAcquire(ctx, "k", "A", 5*time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.Renew(ctx, "k", "B", 5*time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "renew by non-owner should fail")

	ok, err = store.Renew(ctx, "k", "A", 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "renew by owner should succeed")

	ok, err = store.Release(ctx, "k", "B")
	require.NoError(t, err)
	assert.False(t, ok, "release by non-owner should fail")

	ok, err = store.Release(ctx, "k", "A")
	require.NoError(t, err)
	assert.True(t, ok, "release by owner should succeed")

	ok, err = store.Renew(ctx, "k", "A", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "renew after release should fail")
}
