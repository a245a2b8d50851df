package clickhouse

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whalewire/internal/domain"
	"whalewire/internal/idhash"
)

func archiveEvent(address string, lt int64) *domain.CanonicalEvent {
	txHash := fmt.Sprintf("hash-%s-%d", address, lt)
	return &domain.CanonicalEvent{
		EventID:    idhash.EventID("ton", address, lt, txHash),
		Chain:      "ton",
		Provider:   "tonapi",
		Address:    address,
		Lt:         lt,
		TxHash:     txHash,
		RawJSON:    `{"amount":"1000"}`,
		OccurredAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestEventArchiveStore_ArchiveBulk(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewEventArchiveStore(conn)

	events := []*domain.CanonicalEvent{
		archiveEvent("EQwallet1", 100),
		archiveEvent("EQwallet1", 200),
		archiveEvent("EQwallet2", 150),
	}

	err := store.ArchiveBulk(ctx, events)
	require.NoError(t, err)

	count, err := store.CountByAddress(ctx, "ton", "EQwallet1")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	count, err = store.CountByAddress(ctx, "ton", "EQwallet2")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestEventArchiveStore_ArchiveBulk_Empty(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEventArchiveStore(conn)
	err := store.ArchiveBulk(context.Background(), nil)
	require.NoError(t, err)
}

func TestEventArchiveStore_CountByAddress_Unknown(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEventArchiveStore(conn)
	count, err := store.CountByAddress(context.Background(), "ton", "EQnope")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}
