// Package admission persists consumed events exactly-once-effectively:
// insert-once by content-derived id, then advance the checkpoint only
// for fresh insertions. Redelivered or refetched duplicates are
// admitted as no-ops.
package admission

import (
	"context"
	"fmt"
	"log"

	"whalewire/internal/domain"
	"whalewire/internal/storage"
)

// Handler admits canonical events into durable storage.
type Handler struct {
	events      storage.EventStore
	checkpoints storage.CheckpointStore
	archive     storage.EventArchiveStore
	onAdmit     func(inserted bool)
	logger      *log.Logger
}

// HandlerOptions contains configuration for creating a Handler.
type HandlerOptions struct {
	Events      storage.EventStore
	Checkpoints storage.CheckpointStore
	Archive     storage.EventArchiveStore // Optional; nil disables archival
	OnAdmit     func(inserted bool)
	Logger      *log.Logger
}

// NewHandler creates a new Handler.
func NewHandler(opts HandlerOptions) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Handler{
		events:      opts.Events,
		checkpoints: opts.Checkpoints,
		archive:     opts.Archive,
		onAdmit:     opts.OnAdmit,
		logger:      logger,
	}
}

// Handle admits one event. The checkpoint advances only when the event
// was freshly inserted; a duplicate id leaves both the event row and the
// checkpoint untouched. A checkpoint conflict (same lt, different hash)
// propagates to the caller unresolved.
func (h *Handler) Handle(ctx context.Context, event *domain.CanonicalEvent) error {
	inserted, err := h.events.UpsertIdempotent(ctx, event)
	if err != nil {
		return fmt.Errorf("admit event %s: %w", event.EventID, err)
	}

	if !inserted {
		h.logger.Printf("Duplicate event %s, skipping", event.EventID)
		if h.onAdmit != nil {
			h.onAdmit(false)
		}
		return nil
	}

	err = h.checkpoints.AdvanceMonotonic(ctx, event.Chain, event.Address, event.Provider, event.Lt, event.TxHash)
	if err != nil {
		return fmt.Errorf("advance checkpoint for event %s: %w", event.EventID, err)
	}

	h.archiveEvent(ctx, event)
	if h.onAdmit != nil {
		h.onAdmit(true)
	}
	return nil
}

// archiveEvent writes the event to the analytical store. Best-effort:
// archive failures are logged and never fail admission.
func (h *Handler) archiveEvent(ctx context.Context, event *domain.CanonicalEvent) {
	if h.archive == nil {
		return
	}

	if err := h.archive.ArchiveBulk(ctx, []*domain.CanonicalEvent{event}); err != nil {
		h.logger.Printf("Error archiving event %s: %v", event.EventID, err)
	}
}
