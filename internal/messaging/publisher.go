package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"whalewire/internal/domain"
)

// Publisher delivers canonical events to the CanonicalEventReady fanout
// exchange as persistent JSON messages. It satisfies the ingestion
// layer's EventPublisher contract.
type Publisher struct {
	conn     *Conn
	exchange string
	logger   *log.Logger

	mu       sync.Mutex
	ch       *amqp.Channel
	declared bool
}

// PublisherOptions contains configuration for creating a Publisher.
type PublisherOptions struct {
	Conn   *Conn
	Logger *log.Logger
}

// NewPublisher creates a new Publisher.
func NewPublisher(opts PublisherOptions) *Publisher {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Publisher{
		conn:     opts.Conn,
		exchange: ExchangeName(CanonicalEventReadyName),
		logger:   logger,
	}
}

// Publish marshals the event into a CanonicalEventReady message and
// publishes it. The exchange is declared durable on first use.
func (p *Publisher) Publish(ctx context.Context, event *domain.CanonicalEvent) error {
	msg := CanonicalEventReady{
		EventID:    event.EventID,
		Chain:      event.Chain,
		Provider:   event.Provider,
		Address:    event.Address,
		Lt:         event.Lt,
		TxHash:     event.TxHash,
		RawJSON:    event.RawJSON,
		OccurredAt: event.OccurredAt.UTC(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.EventID, err)
	}

	ch, err := p.channel()
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx, p.exchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		// Drop the cached channel so the next publish redials.
		p.mu.Lock()
		p.ch = nil
		p.declared = false
		p.mu.Unlock()
		return fmt.Errorf("publish event %s: %w", event.EventID, err)
	}

	return nil
}

// Close releases the cached channel.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil {
		return nil
	}
	ch := p.ch
	p.ch = nil
	p.declared = false
	return ch.Close()
}

// channel returns the cached channel, opening one and declaring the
// exchange when needed.
func (p *Publisher) channel() (*amqp.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return nil, err
	}

	if !p.declared {
		err = ch.ExchangeDeclare(p.exchange, "fanout", true, false, false, false, nil)
		if err != nil {
			ch.Close()
			return nil, fmt.Errorf("declare exchange %s: %w", p.exchange, err)
		}
		p.declared = true
	}

	p.ch = ch
	return ch, nil
}
