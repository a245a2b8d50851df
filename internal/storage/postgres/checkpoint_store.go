package postgres

import (
	"context"
	"fmt"
	"time"

	"whalewire/internal/domain"
	"whalewire/internal/storage"
)

// CheckpointStore implements storage.CheckpointStore using PostgreSQL.
type CheckpointStore struct {
	pool *Pool
}

// NewCheckpointStore creates a new CheckpointStore.
func NewCheckpointStore(pool *Pool) *CheckpointStore {
	return &CheckpointStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CheckpointStore = (*CheckpointStore)(nil)

// Get retrieves the checkpoint for (chain, address, provider).
func (s *CheckpointStore) Get(ctx context.Context, chain, address, provider string) (*domain.Checkpoint, error) {
	query := `
		SELECT chain, address, provider, last_lt, last_hash, updated_at
		FROM checkpoints
		WHERE chain = $1 AND address = $2 AND provider = $3
	`

	var cp domain.Checkpoint
	err := s.pool.QueryRow(ctx, query, chain, address, provider).Scan(
		&cp.Chain,
		&cp.Address,
		&cp.Provider,
		&cp.LastLt,
		&cp.LastHash,
		&cp.UpdatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get checkpoint: %w", err)
	}

	return &cp, nil
}

// AdvanceMonotonic moves the checkpoint forward, creating it if absent.
// The transaction first inserts-if-absent, then locks the row, so
// concurrent callers for the same key serialize on the row lock and the
// monotonic comparison always reads committed state.
func (s *CheckpointStore) AdvanceMonotonic(ctx context.Context, chain, address, provider string, lt int64, hash string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	insert := `
		INSERT INTO checkpoints (chain, address, provider, last_lt, last_hash, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (chain, address, provider) DO NOTHING
	`
	if _, err := tx.Exec(ctx, insert, chain, address, provider, lt, hash, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert checkpoint: %w", err)
	}

	var lastLt int64
	var lastHash string
	lock := `
		SELECT last_lt, last_hash
		FROM checkpoints
		WHERE chain = $1 AND address = $2 AND provider = $3
		FOR UPDATE
	`
	if err := tx.QueryRow(ctx, lock, chain, address, provider).Scan(&lastLt, &lastHash); err != nil {
		return fmt.Errorf("lock checkpoint: %w", err)
	}

	switch {
	case lt == lastLt && hash != lastHash:
		return storage.ErrCheckpointConflict
	case lt > lastLt:
		update := `
			UPDATE checkpoints
			SET last_lt = $4, last_hash = $5, updated_at = $6
			WHERE chain = $1 AND address = $2 AND provider = $3
		`
		if _, err := tx.Exec(ctx, update, chain, address, provider, lt, hash, time.Now().UTC()); err != nil {
			return fmt.Errorf("update checkpoint: %w", err)
		}
	default:
		// Out-of-order or duplicate advance; keep the stored value.
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}
