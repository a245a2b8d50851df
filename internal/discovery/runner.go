package discovery

import (
	"context"
	"log"
	"time"

	"whalewire/internal/storage"
)

// Runner drives periodic whale discovery: it pulls the merged top-account
// set from the Aggregator and upserts every account into the monitored
// address store. Rediscovered addresses are reactivated with a fresh
// balance by the store's upsert semantics.
type Runner struct {
	aggregator   *Aggregator
	addressStore storage.MonitoredAddressStore
	chain        string
	provider     string
	interval     time.Duration
	limit        int
	onCycle      func(merged int, err error)
	logger       *log.Logger
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Aggregator   *Aggregator
	AddressStore storage.MonitoredAddressStore
	Chain        string
	Provider     string
	Interval     time.Duration // Default: 60m
	Limit        int           // Default: 1000
	OnCycle      func(merged int, err error)
	Logger       *log.Logger
}

// NewRunner creates a new discovery runner.
func NewRunner(opts RunnerOptions) *Runner {
	interval := opts.Interval
	if interval == 0 {
		interval = 60 * time.Minute
	}

	limit := opts.Limit
	if limit == 0 {
		limit = 1000
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Runner{
		aggregator:   opts.Aggregator,
		addressStore: opts.AddressStore,
		chain:        opts.Chain,
		provider:     opts.Provider,
		interval:     interval,
		limit:        limit,
		onCycle:      opts.OnCycle,
		logger:       logger,
	}
}

// Run starts the discovery loop. The first cycle runs immediately; cycle
// errors are logged, not fatal. Blocks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Printf("Starting discovery runner, interval: %v, limit: %d", r.interval, r.limit)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	if err := r.RunOnce(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Printf("Discovery cycle failed: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.Println("Discovery runner stopping...")
			return ctx.Err()
		case <-ticker.C:
			if err := r.RunOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.logger.Printf("Discovery cycle failed: %v", err)
			}
		}
	}
}

// RunOnce executes a single discovery cycle. An empty merged set is not
// an error: zero addresses are upserted and the cycle completes.
func (r *Runner) RunOnce(ctx context.Context) error {
	accounts, err := r.aggregator.TopAccounts(ctx, r.limit)
	if err != nil {
		if r.onCycle != nil {
			r.onCycle(0, err)
		}
		return err
	}

	upserted := 0
	for _, account := range accounts {
		err := r.addressStore.Upsert(ctx, r.chain, account.Address, r.provider, account.Balance.String())
		if err != nil {
			r.logger.Printf("Error upserting address %s: %v", account.Address, err)
			continue
		}
		upserted++
	}

	r.logger.Printf("Discovery cycle complete: %d accounts merged, %d upserted", len(accounts), upserted)
	if r.onCycle != nil {
		r.onCycle(len(accounts), nil)
	}
	return nil
}
