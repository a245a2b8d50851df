package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"whalewire/internal/breaker"
)

// Handler processes one deserialized message. Returning an error marks
// the delivery failed and subject to the retry policy.
type Handler func(ctx context.Context, msg *CanonicalEventReady) error

// Consumer reads CanonicalEventReady messages one at a time, invoking
// the handler behind a circuit breaker. Failed deliveries are requeued
// with backoff up to the retry limit, then dead-lettered; malformed
// payloads are dead-lettered immediately since no retry can fix them.
type Consumer struct {
	conn         *Conn
	handler      Handler
	brk          *breaker.Breaker
	retry        *retryPolicy
	onRetry      func(delay time.Duration)
	onDeadLetter func()
	logger       *log.Logger

	exchange string
	queue    string
	dlq      string
}

// ConsumerOptions contains configuration for creating a Consumer.
type ConsumerOptions struct {
	Conn    *Conn
	Handler Handler
	Breaker *breaker.Breaker // Optional; nil disables circuit breaking

	MaxRetries     int             // Default: 3 redeliveries before dead-lettering
	RetryDelays    []time.Duration // Default: 1s, 5s, 30s
	SweepThreshold int             // Default: 1000 tracked message ids
	OnRetry        func(delay time.Duration)
	OnDeadLetter   func()
	Logger         *log.Logger
}

// NewConsumer creates a new Consumer.
func NewConsumer(opts ConsumerOptions) *Consumer {
	maxRetries := opts.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}

	delays := opts.RetryDelays
	if len(delays) == 0 {
		delays = []time.Duration{1 * time.Second, 5 * time.Second, 30 * time.Second}
	}

	sweepThreshold := opts.SweepThreshold
	if sweepThreshold == 0 {
		sweepThreshold = 1000
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	exchange := ExchangeName(CanonicalEventReadyName)
	queue := QueueName(exchange)

	return &Consumer{
		conn:         opts.Conn,
		handler:      opts.Handler,
		brk:          opts.Breaker,
		retry:        newRetryPolicy(maxRetries, delays, sweepThreshold),
		onRetry:      opts.OnRetry,
		onDeadLetter: opts.OnDeadLetter,
		logger:       logger,
		exchange:     exchange,
		queue:        queue,
		dlq:          DLQName(queue),
	}
}

// Run declares the topology and consumes until ctx is cancelled.
// Prefetch is 1: deliveries, redeliveries and backoff sleeps are
// strictly serialized per queue, so sustained failures throttle the
// whole queue.
func (c *Consumer) Run(ctx context.Context) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := c.declareTopology(ch); err != nil {
		return err
	}

	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}

	c.logger.Printf("Consuming from %s (dlq: %s)", c.queue, c.dlq)

	for {
		select {
		case <-ctx.Done():
			c.logger.Println("Consumer stopping...")
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errors.New("delivery channel closed")
			}
			c.handleDelivery(ctx, &d)
			c.retry.sweep()
		}
	}
}

// declareTopology sets up exchange, queue, DLQ and binding. Rejected
// deliveries route through the default exchange straight into the DLQ.
func (c *Consumer) declareTopology(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(c.exchange, "fanout", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", c.exchange, err)
	}

	_, err = ch.QueueDeclare(c.dlq, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare dlq %s: %w", c.dlq, err)
	}

	_, err = ch.QueueDeclare(c.queue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": c.dlq,
	})
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", c.queue, err)
	}

	if err := ch.QueueBind(c.queue, "", c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", c.queue, err)
	}

	return nil
}

// handleDelivery drives one delivery through the per-message state
// machine: deserialize, handle behind the breaker, then ack, requeue
// with backoff, or dead-letter.
func (c *Consumer) handleDelivery(ctx context.Context, d *amqp.Delivery) {
	var msg CanonicalEventReady
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		c.logger.Printf("Malformed payload (message %s), dead-lettering: %v", d.MessageId, err)
		c.deadLetter(d)
		return
	}

	err := c.invoke(ctx, &msg)
	if err == nil {
		c.retry.clear(d.MessageId)
		if ackErr := d.Ack(false); ackErr != nil {
			c.logger.Printf("Error acking message %s: %v", d.MessageId, ackErr)
		}
		return
	}

	if errors.Is(err, breaker.ErrOpen) {
		c.logger.Printf("Breaker open, message %s counted as failed", d.MessageId)
	} else {
		c.logger.Printf("Handler failed for message %s: %v", d.MessageId, err)
	}

	delay, requeue := c.retry.nextAttempt(d.MessageId)
	if !requeue {
		c.logger.Printf("Retries exhausted for message %s, dead-lettering", d.MessageId)
		c.deadLetter(d)
		return
	}

	if c.onRetry != nil {
		c.onRetry(delay)
	}
	if err := sleepCtx(ctx, delay); err != nil {
		// Shutting down: requeue immediately so the message is not lost.
		c.nack(d, true)
		return
	}
	c.nack(d, true)
}

func (c *Consumer) deadLetter(d *amqp.Delivery) {
	c.nack(d, false)
	if c.onDeadLetter != nil {
		c.onDeadLetter()
	}
}

// invoke runs the handler, behind the breaker when one is configured.
func (c *Consumer) invoke(ctx context.Context, msg *CanonicalEventReady) error {
	if c.brk == nil {
		return c.handler(ctx, msg)
	}
	return c.brk.Do(ctx, func(ctx context.Context) error {
		return c.handler(ctx, msg)
	})
}

func (c *Consumer) nack(d *amqp.Delivery, requeue bool) {
	if err := d.Nack(false, requeue); err != nil {
		c.logger.Printf("Error nacking message %s: %v", d.MessageId, err)
	}
}

// sleepCtx sleeps for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
