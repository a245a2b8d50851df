package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitoredAddressStore_UpsertListDeactivate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewMonitoredAddressStore(pool)
	ctx := context.Background()

	// "9" sorts after "100" lexically; the NUMERIC column keeps
	// ordering numeric.
	require.NoError(t, store.Upsert(ctx, "ton", "small", "tonapi", "9"))
	require.NoError(t, store.Upsert(ctx, "ton", "big", "tonapi", "100"))
	require.NoError(t, store.Upsert(ctx, "ton", "huge", "tonapi", "123456789012345678901234567890"))

	addresses, err := store.ListActive(ctx, "ton", "tonapi")
	require.NoError(t, err)
	assert.Equal(t, []string{"huge", "big", "small"}, addresses)

	// Soft delete.
	require.NoError(t, store.Deactivate(ctx, "ton", "big", "tonapi"))

	addresses, err = store.ListActive(ctx, "ton", "tonapi")
	require.NoError(t, err)
	assert.Equal(t, []string{"huge", "small"}, addresses)

	// The row survives: rediscovery reactivates it with a fresh balance.
	require.NoError(t, store.Upsert(ctx, "ton", "big", "tonapi", "999999999999999999999999999999999"))

	addresses, err = store.ListActive(ctx, "ton", "tonapi")
	require.NoError(t, err)
	assert.Equal(t, []string{"big", "huge", "small"}, addresses)

	var count int
	err = pool.QueryRow(ctx, `SELECT count(*) FROM monitored_addresses`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 3, count, "deactivate must never delete rows")
}

func TestMonitoredAddressStore_ListActiveScoped(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewMonitoredAddressStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "ton", "a1", "tonapi", "10"))
	require.NoError(t, store.Upsert(ctx, "ton", "a2", "toncenter", "20"))

	addresses, err := store.ListActive(ctx, "ton", "tonapi")
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, addresses)

	// Empty result is not an error.
	addresses, err = store.ListActive(ctx, "eth", "tonapi")
	require.NoError(t, err)
	assert.Empty(t, addresses)
}
