package messaging

import (
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Conn is a lazily-dialed AMQP connection shared by publishers and
// consumers. Channels are cheap; the TCP connection is the shared
// resource.
type Conn struct {
	url string

	mu   sync.Mutex
	conn *amqp.Connection
}

// NewConn creates a Conn. No network activity happens until the first
// Channel call.
func NewConn(url string) *Conn {
	return &Conn{url: url}
}

// Channel returns a fresh AMQP channel, dialing the broker on first use
// and redialing if the previous connection dropped.
func (c *Conn) Channel() (*amqp.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || c.conn.IsClosed() {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			return nil, fmt.Errorf("dial amqp broker: %w", err)
		}
		c.conn = conn
	}

	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	return ch, nil
}

// Close closes the underlying connection if one was established.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || c.conn.IsClosed() {
		return nil
	}
	return c.conn.Close()
}
