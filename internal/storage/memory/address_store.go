package memory

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"whalewire/internal/domain"
	"whalewire/internal/storage"
)

// MonitoredAddressStore is an in-memory implementation of
// storage.MonitoredAddressStore. Balances compare numerically via
// big.Int, matching the NUMERIC column in the Postgres implementation.
type MonitoredAddressStore struct {
	mu   sync.Mutex
	data map[string]*domain.MonitoredAddress
}

// NewMonitoredAddressStore creates a new in-memory address store.
func NewMonitoredAddressStore() *MonitoredAddressStore {
	return &MonitoredAddressStore{
		data: make(map[string]*domain.MonitoredAddress),
	}
}

func addressKey(chain, address, provider string) string {
	return fmt.Sprintf("%s|%s|%s", chain, address, provider)
}

// ListActive returns active addresses for (chain, provider), largest
// balance first.
func (s *MonitoredAddressStore) ListActive(_ context.Context, chain, provider string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active []*domain.MonitoredAddress
	for _, m := range s.data {
		if m.Chain == chain && m.Provider == provider && m.IsActive {
			active = append(active, m)
		}
	}

	sort.Slice(active, func(i, j int) bool {
		bi, bj := parseBalance(active[i].Balance), parseBalance(active[j].Balance)
		if cmp := bi.Cmp(bj); cmp != 0 {
			return cmp > 0
		}
		return active[i].Address < active[j].Address
	})

	addresses := make([]string, len(active))
	for i, m := range active {
		addresses[i] = m.Address
	}
	return addresses, nil
}

// Upsert inserts or refreshes an address, reactivating soft-deleted rows.
func (s *MonitoredAddressStore) Upsert(_ context.Context, chain, address, provider, balance string) error {
	if chain == "" || address == "" || provider == "" {
		return storage.ErrInvalidInput
	}
	if balance == "" {
		balance = "0"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	key := addressKey(chain, address, provider)

	if existing, ok := s.data[key]; ok {
		existing.Balance = balance
		existing.IsActive = true
		existing.UpdatedAt = now
		return nil
	}

	s.data[key] = &domain.MonitoredAddress{
		Chain:        chain,
		Address:      address,
		Provider:     provider,
		Balance:      balance,
		IsActive:     true,
		DiscoveredAt: now,
		UpdatedAt:    now,
	}
	return nil
}

// Deactivate soft-deletes an address. Unknown rows are a no-op.
func (s *MonitoredAddressStore) Deactivate(_ context.Context, chain, address, provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.data[addressKey(chain, address, provider)]; ok {
		existing.IsActive = false
		existing.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// Get retrieves a monitored address. Returns ErrNotFound if absent.
// Not part of the interface; used by tests to inspect soft-delete state.
func (s *MonitoredAddressStore) Get(_ context.Context, chain, address, provider string) (*domain.MonitoredAddress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.data[addressKey(chain, address, provider)]
	if !ok {
		return nil, storage.ErrNotFound
	}

	copy := *m
	return &copy, nil
}

func parseBalance(s string) *big.Int {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return big.NewInt(0)
	}
	return b
}

var _ storage.MonitoredAddressStore = (*MonitoredAddressStore)(nil)
