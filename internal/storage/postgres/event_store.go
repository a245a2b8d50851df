package postgres

import (
	"context"
	"fmt"

	"whalewire/internal/domain"
	"whalewire/internal/storage"
)

// EventStore implements storage.EventStore using PostgreSQL.
type EventStore struct {
	pool *Pool
}

// NewEventStore creates a new EventStore.
func NewEventStore(pool *Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

// UpsertIdempotent inserts the event, reporting whether a new row was
// created. The unique index on event_id makes the racing case safe:
// exactly one of two concurrent inserters gets rows-affected 1.
func (s *EventStore) UpsertIdempotent(ctx context.Context, event *domain.CanonicalEvent) (bool, error) {
	if event == nil || event.EventID == "" {
		return false, storage.ErrInvalidInput
	}

	query := `
		INSERT INTO events (
			event_id, chain, provider, address, lt, tx_hash, block_time, raw_json
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO NOTHING
	`

	tag, err := s.pool.Exec(ctx, query,
		event.EventID,
		event.Chain,
		event.Provider,
		event.Address,
		event.Lt,
		event.TxHash,
		event.OccurredAt,
		event.RawJSON,
	)
	if err != nil {
		// ON CONFLICT covers the event_id index, but a concurrent inserter
		// can still surface a unique violation under serializable
		// isolation. Treat it as the duplicate it is.
		if isDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("upsert event: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
