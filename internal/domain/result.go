package domain

// AddressResult is the outcome of one per-address ingestion cycle.
// Error is the failure message, or empty on success.
type AddressResult struct {
	Address         string
	EventsPublished int
	Error           string
}

// IngestionResult summarizes one coordinator run over all active
// monitored addresses.
type IngestionResult struct {
	AddressesProcessed   int
	TotalEventsPublished int
	Results              []AddressResult
}
