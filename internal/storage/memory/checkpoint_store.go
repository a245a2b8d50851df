package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"whalewire/internal/domain"
	"whalewire/internal/storage"
)

// CheckpointStore is an in-memory implementation of storage.CheckpointStore.
type CheckpointStore struct {
	mu   sync.Mutex
	data map[string]*domain.Checkpoint
}

// NewCheckpointStore creates a new in-memory checkpoint store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{
		data: make(map[string]*domain.Checkpoint),
	}
}

func checkpointKey(chain, address, provider string) string {
	return fmt.Sprintf("%s|%s|%s", chain, address, provider)
}

// Get retrieves the checkpoint. Returns ErrNotFound if none exists.
func (s *CheckpointStore) Get(_ context.Context, chain, address, provider string) (*domain.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp, ok := s.data[checkpointKey(chain, address, provider)]
	if !ok {
		return nil, storage.ErrNotFound
	}

	copy := *cp
	return &copy, nil
}

// AdvanceMonotonic moves the checkpoint forward, creating it if absent.
func (s *CheckpointStore) AdvanceMonotonic(_ context.Context, chain, address, provider string, lt int64, hash string) error {
	if chain == "" || address == "" || provider == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := checkpointKey(chain, address, provider)

	existing, ok := s.data[key]
	if !ok {
		s.data[key] = &domain.Checkpoint{
			Chain:     chain,
			Address:   address,
			Provider:  provider,
			LastLt:    lt,
			LastHash:  hash,
			UpdatedAt: time.Now().UTC(),
		}
		return nil
	}

	switch {
	case lt == existing.LastLt && hash != existing.LastHash:
		return storage.ErrCheckpointConflict
	case lt > existing.LastLt:
		existing.LastLt = lt
		existing.LastHash = hash
		existing.UpdatedAt = time.Now().UTC()
	default:
		// Out-of-order or duplicate advance; keep the stored value.
	}

	return nil
}

var _ storage.CheckpointStore = (*CheckpointStore)(nil)
