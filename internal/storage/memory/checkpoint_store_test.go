package memory

import (
	"context"
	"errors"
	"testing"

	"whalewire/internal/storage"
)

func TestCheckpointStore_CreateAndGet(t *testing.T) {
	store := NewCheckpointStore()
	ctx := context.Background()

	if _, err := store.Get(ctx, "ton", "addr", "tonapi"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.AdvanceMonotonic(ctx, "ton", "addr", "tonapi", 100, "h1"); err != nil {
		t.Fatalf("AdvanceMonotonic failed: %v", err)
	}

	cp, err := store.Get(ctx, "ton", "addr", "tonapi")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if cp.LastLt != 100 || cp.LastHash != "h1" {
		t.Errorf("unexpected checkpoint: lt=%d hash=%s", cp.LastLt, cp.LastHash)
	}
}

func TestCheckpointStore_ConflictSameLtDifferentHash(t *testing.T) {
	store := NewCheckpointStore()
	ctx := context.Background()

	if err := store.AdvanceMonotonic(ctx, "ton", "addr", "tonapi", 100, "h1"); err != nil {
		t.Fatalf("AdvanceMonotonic failed: %v", err)
	}

	err := store.AdvanceMonotonic(ctx, "ton", "addr", "tonapi", 100, "h2")
	if !errors.Is(err, storage.ErrCheckpointConflict) {
		t.Fatalf("expected ErrCheckpointConflict, got %v", err)
	}

	// Stored value must be untouched after a conflict.
	cp, _ := store.Get(ctx, "ton", "addr", "tonapi")
	if cp.LastLt != 100 || cp.LastHash != "h1" {
		t.Errorf("conflict mutated stored checkpoint: lt=%d hash=%s", cp.LastLt, cp.LastHash)
	}
}

func TestCheckpointStore_OutOfOrderIsNoOp(t *testing.T) {
	store := NewCheckpointStore()
	ctx := context.Background()

	if err := store.AdvanceMonotonic(ctx, "ton", "addr", "tonapi", 100, "h1"); err != nil {
		t.Fatalf("AdvanceMonotonic failed: %v", err)
	}

	if err := store.AdvanceMonotonic(ctx, "ton", "addr", "tonapi", 50, "h0"); err != nil {
		t.Fatalf("expected lower-lt advance to be a no-op, got %v", err)
	}

	cp, _ := store.Get(ctx, "ton", "addr", "tonapi")
	if cp.LastLt != 100 || cp.LastHash != "h1" {
		t.Errorf("no-op advance mutated checkpoint: lt=%d hash=%s", cp.LastLt, cp.LastHash)
	}

	// Duplicate advance (same lt, same hash) is also a no-op.
	if err := store.AdvanceMonotonic(ctx, "ton", "addr", "tonapi", 100, "h1"); err != nil {
		t.Fatalf("expected duplicate advance to be a no-op, got %v", err)
	}
}

func TestCheckpointStore_Advance(t *testing.T) {
	store := NewCheckpointStore()
	ctx := context.Background()

	if err := store.AdvanceMonotonic(ctx, "ton", "addr", "tonapi", 100, "h1"); err != nil {
		t.Fatalf("AdvanceMonotonic failed: %v", err)
	}
	if err := store.AdvanceMonotonic(ctx, "ton", "addr", "tonapi", 200, "h2"); err != nil {
		t.Fatalf("AdvanceMonotonic failed: %v", err)
	}

	cp, _ := store.Get(ctx, "ton", "addr", "tonapi")
	if cp.LastLt != 200 || cp.LastHash != "h2" {
		t.Errorf("expected (200, h2), got (%d, %s)", cp.LastLt, cp.LastHash)
	}
}

func TestCheckpointStore_KeysAreIndependent(t *testing.T) {
	store := NewCheckpointStore()
	ctx := context.Background()

	if err := store.AdvanceMonotonic(ctx, "ton", "a1", "tonapi", 100, "h1"); err != nil {
		t.Fatal(err)
	}
	if err := store.AdvanceMonotonic(ctx, "ton", "a2", "tonapi", 100, "h2"); err != nil {
		t.Fatalf("different address must not conflict: %v", err)
	}
	if err := store.AdvanceMonotonic(ctx, "ton", "a1", "toncenter", 100, "h3"); err != nil {
		t.Fatalf("different provider must not conflict: %v", err)
	}
}
