package storage

import (
	"context"
	"time"

	"whalewire/internal/domain"
)

// LeaseStore provides distributed mutual exclusion over a string key.
// A lease is held by at most one unexpired owner; expired leases are
// free for any owner to claim. The lease is an optimization to avoid
// duplicate concurrent fetch/publish work, not a correctness guard:
// event admission downstream tolerates violations.
type LeaseStore interface {
	// TryAcquire claims the lease for owner until now+duration. It returns
	// true when the lease was free, expired, or already held by owner
	// (self-renew). Concurrent creators resolve to exactly one winner.
	TryAcquire(ctx context.Context, key, owner string, duration time.Duration) (bool, error)

	// Renew extends the lease expiry. It succeeds only when the record
	// exists and is owned by owner; expiry is not re-checked since the
	// caller already holds logical ownership.
	Renew(ctx context.Context, key, owner string, duration time.Duration) (bool, error)

	// Release deletes the lease. It succeeds only when the record exists
	// and is owned by owner.
	Release(ctx context.Context, key, owner string) (bool, error)
}

// CheckpointStore provides the per-key monotonic last-seen cursor.
type CheckpointStore interface {
	// Get retrieves the checkpoint. Returns ErrNotFound if none exists.
	Get(ctx context.Context, chain, address, provider string) (*domain.Checkpoint, error)

	// AdvanceMonotonic moves the checkpoint forward. Creates the record if
	// absent. Returns ErrCheckpointConflict when lt equals the stored
	// last_lt with a different hash; advances when lt is greater; is a
	// silent no-op otherwise (out-of-order or duplicate advance calls).
	// Atomic per key under concurrent callers.
	AdvanceMonotonic(ctx context.Context, chain, address, provider string, lt int64, hash string) error
}

// EventStore provides idempotent admission of canonical events.
type EventStore interface {
	// UpsertIdempotent inserts the event and returns true, or returns
	// false without mutation if a row with the same EventID already
	// exists. When two callers race on one EventID exactly one sees true.
	UpsertIdempotent(ctx context.Context, event *domain.CanonicalEvent) (bool, error)
}

// EventArchiveStore provides append-only retention of admitted events in
// the analytical store. Archival is best-effort; duplicates collapse via
// the storage engine rather than being rejected at insert time.
type EventArchiveStore interface {
	// ArchiveBulk appends a batch of events. An empty batch is a no-op.
	ArchiveBulk(ctx context.Context, events []*domain.CanonicalEvent) error

	// CountByAddress returns the archived event count for (chain, address).
	CountByAddress(ctx context.Context, chain, address string) (uint64, error)
}

// MonitoredAddressStore provides access to the discovered-whale set.
// Addresses are soft-deleted via is_active, never physically removed.
type MonitoredAddressStore interface {
	// ListActive returns active addresses for (chain, provider), ordered
	// by discovery balance descending.
	ListActive(ctx context.Context, chain, provider string) ([]string, error)

	// Upsert inserts or refreshes an address. Reactivates soft-deleted
	// rows and overwrites the stored balance. Balance is an
	// arbitrary-precision decimal string.
	Upsert(ctx context.Context, chain, address, provider, balance string) error

	// Deactivate soft-deletes an address. Unknown addresses are a no-op.
	Deactivate(ctx context.Context, chain, address, provider string) error
}
