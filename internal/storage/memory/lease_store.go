package memory

import (
	"context"
	"sync"
	"time"

	"whalewire/internal/storage"
)

type lease struct {
	owner     string
	expiresAt time.Time
}

// LeaseStore is an in-memory implementation of storage.LeaseStore.
// The mutex stands in for the database's atomic create-or-fail: only one
// of two concurrent acquirers observes the key as free.
type LeaseStore struct {
	mu   sync.Mutex
	data map[string]lease

	// nowFunc is replaceable in tests to simulate expiry.
	nowFunc func() time.Time
}

// NewLeaseStore creates a new in-memory lease store.
func NewLeaseStore() *LeaseStore {
	return &LeaseStore{
		data:    make(map[string]lease),
		nowFunc: time.Now,
	}
}

// SetNowFunc overrides the store's clock. Test hook.
func (s *LeaseStore) SetNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFunc = now
}

// TryAcquire claims the lease for owner until now+duration.
func (s *LeaseStore) TryAcquire(_ context.Context, key, owner string, duration time.Duration) (bool, error) {
	if key == "" || owner == "" {
		return false, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()

	existing, ok := s.data[key]
	if ok && existing.expiresAt.After(now) && existing.owner != owner {
		return false, nil
	}

	s.data[key] = lease{owner: owner, expiresAt: now.Add(duration)}
	return true, nil
}

// Renew extends the expiry of a lease currently owned by owner.
func (s *LeaseStore) Renew(_ context.Context, key, owner string, duration time.Duration) (bool, error) {
	if key == "" || owner == "" {
		return false, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.data[key]
	if !ok || existing.owner != owner {
		return false, nil
	}

	existing.expiresAt = s.nowFunc().Add(duration)
	s.data[key] = existing
	return true, nil
}

// Release deletes a lease currently owned by owner.
func (s *LeaseStore) Release(_ context.Context, key, owner string) (bool, error) {
	if key == "" || owner == "" {
		return false, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.data[key]
	if !ok || existing.owner != owner {
		return false, nil
	}

	delete(s.data, key)
	return true, nil
}

var _ storage.LeaseStore = (*LeaseStore)(nil)
