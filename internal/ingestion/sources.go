package ingestion

import (
	"context"

	"whalewire/internal/domain"
)

// BlockchainClient fetches an address's events from one chain provider.
type BlockchainClient interface {
	// Chain returns the chain identifier, e.g. "ton".
	Chain() string

	// Provider returns the provider identifier, e.g. "tonapi".
	Provider() string

	// GetEvents fetches up to limit events for address strictly after the
	// given cursor, oldest first. A nil cursor fetches from the beginning
	// of the provider's retention window.
	GetEvents(ctx context.Context, address string, after *domain.Cursor, limit int) ([]domain.RawChainEvent, error)
}

// EventPublisher delivers canonical events to the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.CanonicalEvent) error
}
