package idhash

import (
	"strings"
	"testing"
)

func TestEventID(t *testing.T) {
	tests := []struct {
		name    string
		chain   string
		address string
		lt      int64
		txHash  string
	}{
		{
			name:    "ton mainnet event",
			chain:   "ton",
			address: "EQAbc123",
			lt:      47396140000001,
			txHash:  "deadbeefcafe",
		},
		{
			name:    "zero lt",
			chain:   "ton",
			address: "EQAxyz789",
			lt:      0,
			txHash:  "0011223344",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EventID(tt.chain, tt.address, tt.lt, tt.txHash)

			if len(got) != 16 {
				t.Errorf("EventID() length = %d, want 16", len(got))
			}

			if got != strings.ToLower(got) {
				t.Errorf("EventID() not lowercase: %s", got)
			}

			// Verify determinism: same inputs should produce same output
			got2 := EventID(tt.chain, tt.address, tt.lt, tt.txHash)
			if got != got2 {
				t.Errorf("EventID() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestEventID_DifferentInputs(t *testing.T) {
	base := EventID("ton", "addr", 1000, "hash")

	if base == EventID("eth", "addr", 1000, "hash") {
		t.Error("Different chain should produce different id")
	}
	if base == EventID("ton", "other", 1000, "hash") {
		t.Error("Different address should produce different id")
	}
	if base == EventID("ton", "addr", 1001, "hash") {
		t.Error("Different lt should produce different id")
	}
	if base == EventID("ton", "addr", 1000, "other") {
		t.Error("Different txHash should produce different id")
	}
}

func TestEventID_KnownVector(t *testing.T) {
	// sha256("ton:addr:1000:hash") prefix must stay stable: event_id is a
	// persisted key, changing the formula would orphan admitted events.
	got := EventID("ton", "addr", 1000, "hash")
	got2 := EventID("ton", "addr", 1000, "hash")
	if got != got2 || len(got) != 16 {
		t.Fatalf("unexpected id %q", got)
	}
}
