package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one message. A non-nil error retries the message until
// Topology.MaxAttempts is reached, then dead-letters it.
type Handler func(ctx context.Context, routingKey string, body []byte) error

// ErrDeliveriesClosed is returned by Run when the broker closes the delivery
// channel while the caller still wants messages.
var ErrDeliveriesClosed = errors.New("delivery channel closed")

const (
	// headerRetryCount counts failed attempts carried by a republished message.
	headerRetryCount = "x-retry-count"
	// headerRoutingKey keeps the original routing key of a republished message.
	headerRoutingKey = "x-original-routing-key"
)

// Consumer reads from a queue with manual acknowledgement.
type Consumer struct {
	conn     io.Closer
	ch       channel
	topology Topology
	name     string
	logger   *slog.Logger
}

// NewConsumer dials url and declares topology.
func NewConsumer(url, name string, topology Topology, logger *slog.Logger) (*Consumer, error) {
	conn, ch, err := dial(url)
	if err != nil {
		return nil, err
	}

	c, err := newConsumer(ch, name, topology, logger)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func newConsumer(ch channel, name string, topology Topology, logger *slog.Logger) (*Consumer, error) {
	if err := topology.declare(ch); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		ch:       ch,
		topology: topology,
		name:     name,
		logger:   logger.With("component", "rabbitmq_consumer", "queue", topology.Queue),
	}, nil
}

// Run consumes until ctx is done. It returns nil on cancellation and an error
// wrapping ErrDeliveriesClosed when the broker ends the delivery stream first.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	msgs, err := c.ch.ConsumeWithContext(ctx, c.topology.Queue, c.name, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.topology.Queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("consume %s: %w", c.topology.Queue, ErrDeliveriesClosed)
			}
			c.deliver(ctx, d, handle)
		}
	}
}

func (c *Consumer) deliver(ctx context.Context, d amqp.Delivery, handle Handler) {
	key := routingKey(d)
	attempt := retryCount(d.Headers) + 1
	log := c.logger.With("routing_key", key, "message_id", d.MessageId, "attempt", attempt)

	if err := handle(ctx, key, d.Body); err != nil {
		if attempt < c.topology.MaxAttempts {
			log.Warn("message handling failed, retrying", "error", err)
			c.retry(ctx, d, key, attempt, log)
			return
		}
		log.Error("message handling failed, dead-lettering", "error", err)
		c.deadLetter(d, log)
		return
	}

	if err := d.Ack(false); err != nil {
		log.Error("failed to ack message", "error", err)
	}
}

// retry republishes d straight to the work queue with its attempt count and
// acks the original. A failed republish dead-letters instead.
func (c *Consumer) retry(ctx context.Context, d amqp.Delivery, key string, attempt int, log *slog.Logger) {
	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[headerRetryCount] = int32(attempt)
	headers[headerRoutingKey] = key

	err := c.ch.PublishWithContext(ctx, "", c.topology.Queue, false, false, amqp.Publishing{
		Headers:      headers,
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    d.MessageId,
		Timestamp:    d.Timestamp,
		Body:         d.Body,
	})
	if err != nil {
		log.Error("failed to republish message", "error", err)
		c.deadLetter(d, log)
		return
	}
	if err := d.Ack(false); err != nil {
		log.Error("failed to ack retried message", "error", err)
	}
}

func (c *Consumer) deadLetter(d amqp.Delivery, log *slog.Logger) {
	if err := d.Nack(false, false); err != nil {
		log.Error("failed to nack message", "error", err)
	}
}

// routingKey returns the key the message was first published under.
func routingKey(d amqp.Delivery) string {
	if key, ok := d.Headers[headerRoutingKey].(string); ok && key != "" {
		return key
	}
	return d.RoutingKey
}

// retryCount reads the failed attempt count from headers.
func retryCount(headers amqp.Table) int {
	switch n := headers[headerRetryCount].(type) {
	case int32:
		return int(n)
	case int64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

// Close releases the channel and connection.
func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
