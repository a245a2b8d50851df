package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"whalewire/internal/domain"
	"whalewire/internal/idhash"
	"whalewire/internal/storage"
)

// DefaultLeaseOwner identifies the ingestion role in the lease store.
// All ingesting processes share it: the lease fences cycles, not hosts.
const DefaultLeaseOwner = "ingestor"

// Ingestor runs the single-address ingestion cycle: acquire lease, read
// checkpoint, fetch new events, publish, release lease. The lease avoids
// duplicate concurrent work per address; correctness rests on idempotent
// admission downstream, so a lost lease is a skipped cycle, not a fault.
type Ingestor struct {
	leases      storage.LeaseStore
	checkpoints storage.CheckpointStore
	client      BlockchainClient
	publisher   EventPublisher
	owner       string
	leaseTTL    time.Duration
	fetchLimit  int
	onLeaseSkip func(key string)
	logger      *log.Logger
}

// IngestorOptions contains configuration for creating an Ingestor.
type IngestorOptions struct {
	Leases      storage.LeaseStore
	Checkpoints storage.CheckpointStore
	Client      BlockchainClient
	Publisher   EventPublisher
	Owner       string        // Default: "ingestor"
	LeaseTTL    time.Duration // Default: 5m
	FetchLimit  int           // Default: 100
	OnLeaseSkip func(key string)
	Logger      *log.Logger
}

// NewIngestor creates a new Ingestor.
func NewIngestor(opts IngestorOptions) *Ingestor {
	owner := opts.Owner
	if owner == "" {
		owner = DefaultLeaseOwner
	}

	leaseTTL := opts.LeaseTTL
	if leaseTTL == 0 {
		leaseTTL = 5 * time.Minute
	}

	fetchLimit := opts.FetchLimit
	if fetchLimit == 0 {
		fetchLimit = 100
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Ingestor{
		leases:      opts.Leases,
		checkpoints: opts.Checkpoints,
		client:      opts.Client,
		publisher:   opts.Publisher,
		owner:       owner,
		leaseTTL:    leaseTTL,
		fetchLimit:  fetchLimit,
		onLeaseSkip: opts.OnLeaseSkip,
		logger:      logger,
	}
}

// LeaseKey returns the mutual-exclusion key for one address.
func (i *Ingestor) LeaseKey(address string) string {
	return fmt.Sprintf("%s:%s:%s", i.client.Chain(), i.client.Provider(), address)
}

// IngestAddress runs one cycle for address and returns the number of
// events published. When the lease is held elsewhere the cycle is
// skipped with (0, nil). Fetch and publish errors propagate to the
// caller after the lease has been released.
func (i *Ingestor) IngestAddress(ctx context.Context, address string) (published int, err error) {
	key := i.LeaseKey(address)

	acquired, err := i.leases.TryAcquire(ctx, key, i.owner, i.leaseTTL)
	if err != nil {
		return 0, fmt.Errorf("acquire lease %s: %w", key, err)
	}
	if !acquired {
		i.logger.Printf("Lease %s held elsewhere, skipping cycle", key)
		if i.onLeaseSkip != nil {
			i.onLeaseSkip(key)
		}
		return 0, nil
	}

	defer func() {
		released, releaseErr := i.leases.Release(ctx, key, i.owner)
		if releaseErr != nil {
			i.logger.Printf("Error releasing lease %s: %v", key, releaseErr)
		} else if !released {
			// Expired mid-cycle and taken over; the TTL already freed it.
			i.logger.Printf("Lease %s no longer held at release", key)
		}
	}()

	after, err := i.afterCursor(ctx, address)
	if err != nil {
		return 0, err
	}

	events, err := i.client.GetEvents(ctx, address, after, i.fetchLimit)
	if err != nil {
		return 0, fmt.Errorf("fetch events for %s: %w", address, err)
	}

	for _, raw := range events {
		if err := i.publisher.Publish(ctx, canonicalize(&raw)); err != nil {
			return published, fmt.Errorf("publish event for %s: %w", address, err)
		}
		published++
	}

	return published, nil
}

// afterCursor reads the checkpoint and derives the fetch start position.
// No checkpoint means fetch from the beginning.
func (i *Ingestor) afterCursor(ctx context.Context, address string) (*domain.Cursor, error) {
	cp, err := i.checkpoints.Get(ctx, i.client.Chain(), address, i.client.Provider())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch checkpoint for %s: %w", address, err)
	}

	cursor := cp.Cursor()
	return &cursor, nil
}

// canonicalize converts a raw provider event into its canonical form,
// assigning the content-derived event identifier.
func canonicalize(raw *domain.RawChainEvent) *domain.CanonicalEvent {
	return &domain.CanonicalEvent{
		EventID:    idhash.EventID(raw.Chain, raw.Address, raw.Cursor.Primary, raw.Hash),
		Chain:      raw.Chain,
		Provider:   raw.Provider,
		Address:    raw.Address,
		Lt:         raw.Cursor.Primary,
		TxHash:     raw.Hash,
		RawJSON:    raw.RawJSON,
		OccurredAt: raw.OccurredAt,
	}
}
