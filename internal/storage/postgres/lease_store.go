package postgres

import (
	"context"
	"fmt"
	"time"

	"whalewire/internal/storage"
)

// LeaseStore implements storage.LeaseStore using PostgreSQL.
// All three operations are single statements, so the database is the
// arbiter of every race between concurrent process instances.
type LeaseStore struct {
	pool *Pool
	now  func() time.Time
}

// NewLeaseStore creates a new LeaseStore.
func NewLeaseStore(pool *Pool) *LeaseStore {
	return &LeaseStore{pool: pool, now: time.Now}
}

// Compile-time interface check.
var _ storage.LeaseStore = (*LeaseStore)(nil)

// TryAcquire claims the lease for owner until now+duration.
// The conditional upsert keeps create, takeover and self-renew in one
// atomic statement: the insert either lands (one winner among concurrent
// creators) or falls into DO UPDATE, which only fires when the existing
// lease is expired or already owned by the caller.
func (s *LeaseStore) TryAcquire(ctx context.Context, key, owner string, duration time.Duration) (bool, error) {
	if key == "" || owner == "" {
		return false, storage.ErrInvalidInput
	}

	now := s.now().UTC()

	query := `
		INSERT INTO address_leases (lease_key, owner_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (lease_key) DO UPDATE
		SET owner_id = EXCLUDED.owner_id, expires_at = EXCLUDED.expires_at
		WHERE address_leases.expires_at <= $4
		   OR address_leases.owner_id = EXCLUDED.owner_id
	`

	tag, err := s.pool.Exec(ctx, query, key, owner, now.Add(duration), now)
	if err != nil {
		return false, fmt.Errorf("try acquire lease: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Renew extends the expiry of a lease currently owned by owner.
// Expiry is deliberately not re-checked, only ownership.
func (s *LeaseStore) Renew(ctx context.Context, key, owner string, duration time.Duration) (bool, error) {
	if key == "" || owner == "" {
		return false, storage.ErrInvalidInput
	}

	query := `
		UPDATE address_leases
		SET expires_at = $3
		WHERE lease_key = $1 AND owner_id = $2
	`

	tag, err := s.pool.Exec(ctx, query, key, owner, s.now().UTC().Add(duration))
	if err != nil {
		return false, fmt.Errorf("renew lease: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Release deletes a lease currently owned by owner.
func (s *LeaseStore) Release(ctx context.Context, key, owner string) (bool, error) {
	if key == "" || owner == "" {
		return false, storage.ErrInvalidInput
	}

	query := `
		DELETE FROM address_leases
		WHERE lease_key = $1 AND owner_id = $2
	`

	tag, err := s.pool.Exec(ctx, query, key, owner)
	if err != nil {
		return false, fmt.Errorf("release lease: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
