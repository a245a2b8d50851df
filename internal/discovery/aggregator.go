package discovery

import (
	"context"
	"log"
	"math/big"
	"sort"
	"time"

	"whalewire/internal/domain"
)

// Aggregator unions top-holder snapshots from multiple asset providers
// into one candidate set. An address appearing under several assets is
// ranked by its single largest holding, not a sum.
type Aggregator struct {
	providers     []AssetTopHoldersProvider
	providerDelay time.Duration
	logger        *log.Logger
}

// AggregatorOptions contains configuration for creating an Aggregator.
type AggregatorOptions struct {
	Providers     []AssetTopHoldersProvider
	ProviderDelay time.Duration // Default: 1s - pause between provider calls
	Logger        *log.Logger
}

// NewAggregator creates a new Aggregator.
func NewAggregator(opts AggregatorOptions) *Aggregator {
	providerDelay := opts.ProviderDelay
	if providerDelay == 0 {
		providerDelay = 1 * time.Second
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Aggregator{
		providers:     opts.Providers,
		providerDelay: providerDelay,
		logger:        logger,
	}
}

// TopAccounts queries every provider sequentially and merges the results,
// keeping the maximum balance per address. Provider failures are logged
// and skipped; ErrAllProvidersFailed is returned only when every provider
// failed. The merged set is sorted by balance descending and truncated
// to limit.
func (a *Aggregator) TopAccounts(ctx context.Context, limit int) ([]domain.TopAccount, error) {
	merged := make(map[string]*big.Int)
	succeeded := 0
	failed := 0

	for i, provider := range a.providers {
		snapshot, err := provider.GetTopHolders(ctx, limit)
		if err != nil {
			a.logger.Printf("Provider %d/%d failed, skipping: %v", i+1, len(a.providers), err)
			failed++
			continue
		}
		succeeded++

		for _, holder := range snapshot.Holders {
			if holder.Balance == nil {
				continue
			}
			existing, ok := merged[holder.Address]
			if !ok || holder.Balance.Cmp(existing) > 0 {
				merged[holder.Address] = holder.Balance
			}
		}

		// Rate-limit pause between provider calls, skipped after the last.
		if i < len(a.providers)-1 {
			if err := sleepCtx(ctx, a.providerDelay); err != nil {
				return nil, err
			}
		}
	}

	if succeeded == 0 && failed > 0 {
		return nil, ErrAllProvidersFailed
	}

	accounts := make([]domain.TopAccount, 0, len(merged))
	for address, balance := range merged {
		accounts = append(accounts, domain.TopAccount{Address: address, Balance: balance})
	}

	sort.Slice(accounts, func(i, j int) bool {
		cmp := accounts[i].Balance.Cmp(accounts[j].Balance)
		if cmp != 0 {
			return cmp > 0
		}
		return accounts[i].Address < accounts[j].Address
	})

	if limit > 0 && len(accounts) > limit {
		accounts = accounts[:limit]
	}

	return accounts, nil
}

// sleepCtx sleeps for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
