package domain

import "time"

// RawChainEvent is a single event as fetched from a blockchain provider,
// before canonicalization. Cursor carries the provider's position for the
// event; Hash is the transaction hash backing Cursor.Secondary.
type RawChainEvent struct {
	Chain      string
	Provider   string
	Address    string
	Cursor     Cursor
	Hash       string
	OccurredAt time.Time
	RawJSON    string
}

// CanonicalEvent is an admitted, immutable event record. EventID is the
// content-derived identifier computed by idhash.EventID.
type CanonicalEvent struct {
	EventID    string
	Chain      string
	Provider   string
	Address    string
	Lt         int64
	TxHash     string
	RawJSON    string
	OccurredAt time.Time
}
