package messaging

import (
	"time"

	"whalewire/internal/domain"
)

// CanonicalEventReady is the wire message announcing that a canonical
// event has been fetched and is ready for admission. Field names are
// snake_case on the wire.
type CanonicalEventReady struct {
	EventID    string    `json:"event_id"`
	Chain      string    `json:"chain"`
	Provider   string    `json:"provider"`
	Address    string    `json:"address"`
	Lt         int64     `json:"lt"`
	TxHash     string    `json:"tx_hash"`
	RawJSON    string    `json:"raw_json"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ToDomain converts the wire message back into the canonical event it
// announces.
func (m *CanonicalEventReady) ToDomain() *domain.CanonicalEvent {
	return &domain.CanonicalEvent{
		EventID:    m.EventID,
		Chain:      m.Chain,
		Provider:   m.Provider,
		Address:    m.Address,
		Lt:         m.Lt,
		TxHash:     m.TxHash,
		RawJSON:    m.RawJSON,
		OccurredAt: m.OccurredAt,
	}
}

// CanonicalEventReadyName is the message type name used in topology
// naming.
const CanonicalEventReadyName = "canonicaleventready"

// ExchangeName returns the fanout exchange for a message type.
func ExchangeName(messageName string) string {
	return "whalewire." + messageName
}

// QueueName returns the consumer queue bound to an exchange.
func QueueName(exchange string) string {
	return exchange + ".queue"
}

// DLQName returns the dead-letter queue for a consumer queue.
func DLQName(queue string) string {
	return queue + ".dlq"
}
