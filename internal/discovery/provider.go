package discovery

import (
	"context"
	"errors"

	"whalewire/internal/domain"
)

// ErrAllProvidersFailed is returned by the aggregator when every configured
// provider failed in one cycle and nothing was merged.
var ErrAllProvidersFailed = errors.New("all asset providers failed")

// AssetTopHoldersProvider returns the largest holders of one asset.
// Implementations are chain-explorer clients; failures are expected and
// tolerated by the aggregator as long as at least one provider succeeds.
type AssetTopHoldersProvider interface {
	// GetTopHolders fetches up to limit holders, largest balance first.
	GetTopHolders(ctx context.Context, limit int) (*domain.AssetTopHolders, error)
}
