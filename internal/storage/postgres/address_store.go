package postgres

import (
	"context"
	"fmt"
	"time"

	"whalewire/internal/storage"
)

// MonitoredAddressStore implements storage.MonitoredAddressStore using
// PostgreSQL. balance is NUMERIC(78,0), so ordering is numeric rather
// than lexical even for balances beyond int64 range.
type MonitoredAddressStore struct {
	pool *Pool
}

// NewMonitoredAddressStore creates a new MonitoredAddressStore.
func NewMonitoredAddressStore(pool *Pool) *MonitoredAddressStore {
	return &MonitoredAddressStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MonitoredAddressStore = (*MonitoredAddressStore)(nil)

// ListActive returns active addresses for (chain, provider), largest
// discovery balance first.
func (s *MonitoredAddressStore) ListActive(ctx context.Context, chain, provider string) ([]string, error) {
	query := `
		SELECT address
		FROM monitored_addresses
		WHERE chain = $1 AND provider = $2 AND is_active
		ORDER BY balance DESC
	`

	rows, err := s.pool.Query(ctx, query, chain, provider)
	if err != nil {
		return nil, fmt.Errorf("list active addresses: %w", err)
	}
	defer rows.Close()

	var addresses []string
	for rows.Next() {
		var address string
		if err := rows.Scan(&address); err != nil {
			return nil, fmt.Errorf("scan address row: %w", err)
		}
		addresses = append(addresses, address)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate address rows: %w", err)
	}

	return addresses, nil
}

// Upsert inserts or refreshes an address, reactivating soft-deleted rows.
func (s *MonitoredAddressStore) Upsert(ctx context.Context, chain, address, provider, balance string) error {
	if chain == "" || address == "" || provider == "" {
		return storage.ErrInvalidInput
	}
	if balance == "" {
		balance = "0"
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO monitored_addresses (
			chain, address, provider, balance, is_active, discovered_at, updated_at
		) VALUES ($1, $2, $3, $4, TRUE, $5, $5)
		ON CONFLICT (chain, address, provider) DO UPDATE
		SET balance = EXCLUDED.balance, is_active = TRUE, updated_at = EXCLUDED.updated_at
	`

	if _, err := s.pool.Exec(ctx, query, chain, address, provider, balance, now); err != nil {
		return fmt.Errorf("upsert monitored address: %w", err)
	}

	return nil
}

// Deactivate soft-deletes an address. Unknown rows are a no-op.
func (s *MonitoredAddressStore) Deactivate(ctx context.Context, chain, address, provider string) error {
	query := `
		UPDATE monitored_addresses
		SET is_active = FALSE, updated_at = $4
		WHERE chain = $1 AND address = $2 AND provider = $3
	`

	if _, err := s.pool.Exec(ctx, query, chain, address, provider, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate monitored address: %w", err)
	}

	return nil
}
