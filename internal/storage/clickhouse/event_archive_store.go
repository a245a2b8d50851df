package clickhouse

import (
	"context"
	"fmt"

	"whalewire/internal/domain"
	"whalewire/internal/storage"
)

// EventArchiveStore implements storage.EventArchiveStore using ClickHouse.
// The backing table is a ReplacingMergeTree keyed on (chain, address, lt,
// event_id), so re-archiving an event is harmless.
type EventArchiveStore struct {
	conn *Conn
}

// NewEventArchiveStore creates a new EventArchiveStore.
func NewEventArchiveStore(conn *Conn) *EventArchiveStore {
	return &EventArchiveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EventArchiveStore = (*EventArchiveStore)(nil)

// ArchiveBulk appends multiple events in one batch.
func (s *EventArchiveStore) ArchiveBulk(ctx context.Context, events []*domain.CanonicalEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO event_archive (
			event_id, chain, provider, address, lt, tx_hash, occurred_at, raw_json
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range events {
		err = batch.Append(
			e.EventID, e.Chain, e.Provider, e.Address,
			e.Lt, e.TxHash, e.OccurredAt, e.RawJSON,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// CountByAddress returns the number of archived events for (chain, address).
func (s *EventArchiveStore) CountByAddress(ctx context.Context, chain, address string) (uint64, error) {
	query := `
		SELECT count(*) FROM event_archive
		WHERE chain = ? AND address = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, chain, address).Scan(&count); err != nil {
		return 0, fmt.Errorf("count archived events: %w", err)
	}
	return count, nil
}
