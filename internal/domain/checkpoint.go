package domain

import "time"

// Checkpoint is the durable high-water mark for one
// (chain, address, provider) event stream. LastLt never decreases.
type Checkpoint struct {
	Chain    string
	Address  string
	Provider string
	LastLt   int64
	LastHash string

	UpdatedAt time.Time
}

// Cursor returns the checkpoint position as a Cursor.
func (c *Checkpoint) Cursor() Cursor {
	return Cursor{Primary: c.LastLt, Secondary: c.LastHash}
}

// MonitoredAddress is a discovered large holder that the ingestion loop
// polls. Rows are soft-deleted via IsActive so lease and checkpoint
// history stays addressable; rediscovery reactivates and refreshes
// Balance. Balance is an arbitrary-precision decimal string.
type MonitoredAddress struct {
	Chain    string
	Address  string
	Provider string
	Balance  string
	IsActive bool

	DiscoveredAt time.Time
	UpdatedAt    time.Time
}
