package ingestion

import (
	"context"
	"fmt"
	"log"

	"whalewire/internal/domain"
	"whalewire/internal/storage"
)

// Coordinator fans the Ingestor out over all active monitored addresses.
// Addresses are processed serially in discovery-balance order; one
// address's failure is recorded and never blocks the rest.
type Coordinator struct {
	addressStore storage.MonitoredAddressStore
	ingestor     *Ingestor
	chain        string
	provider     string
	logger       *log.Logger
}

// CoordinatorOptions contains configuration for creating a Coordinator.
type CoordinatorOptions struct {
	AddressStore storage.MonitoredAddressStore
	Ingestor     *Ingestor
	Chain        string
	Provider     string
	Logger       *log.Logger
}

// NewCoordinator creates a new Coordinator.
func NewCoordinator(opts CoordinatorOptions) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Coordinator{
		addressStore: opts.AddressStore,
		ingestor:     opts.Ingestor,
		chain:        opts.Chain,
		provider:     opts.Provider,
		logger:       logger,
	}
}

// RunCycle ingests every active monitored address once. Per-address
// errors are captured in the result entries; only a failure to list the
// address set aborts the cycle.
func (c *Coordinator) RunCycle(ctx context.Context) (*domain.IngestionResult, error) {
	addresses, err := c.addressStore.ListActive(ctx, c.chain, c.provider)
	if err != nil {
		return nil, fmt.Errorf("list active addresses: %w", err)
	}

	result := &domain.IngestionResult{}
	if len(addresses) == 0 {
		return result, nil
	}

	for _, address := range addresses {
		published, err := c.ingestor.IngestAddress(ctx, address)
		result.AddressesProcessed++

		entry := domain.AddressResult{Address: address, EventsPublished: published}
		if err != nil {
			entry.Error = err.Error()
			c.logger.Printf("Error ingesting %s: %v", address, err)
		} else {
			result.TotalEventsPublished += published
		}
		result.Results = append(result.Results, entry)
	}

	c.logger.Printf("Ingestion cycle complete: %d addresses, %d events published",
		result.AddressesProcessed, result.TotalEventsPublished)
	return result, nil
}
