package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// channel is the subset of *amqp.Channel used here.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	ConsumeWithContext(ctx context.Context, queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Topology describes the exchanges and queues a consumer needs.
type Topology struct {
	Exchange           string
	Queue              string
	Bindings           []string
	DeadLetterExchange string
	Prefetch           int
	// MaxAttempts is how many times a message is handled before it is
	// dead-lettered. Values below 2 dead-letter on the first failure.
	MaxAttempts int
}

// deadLetterQueue is the queue bound to the dead-letter exchange.
func (t Topology) deadLetterQueue() string {
	return t.Queue + ".dead"
}

// declareExchange declares a durable topic exchange.
func declareExchange(ch channel, name string) error {
	if err := ch.ExchangeDeclare(name, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", name, err)
	}
	return nil
}

// declare creates the exchange, the work queue with its bindings and, when
// configured, the dead-letter exchange and queue.
func (t Topology) declare(ch channel) error {
	if err := declareExchange(ch, t.Exchange); err != nil {
		return err
	}

	args := amqp.Table{}
	if t.DeadLetterExchange != "" {
		if err := declareExchange(ch, t.DeadLetterExchange); err != nil {
			return err
		}
		if _, err := ch.QueueDeclare(t.deadLetterQueue(), true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare dead-letter queue: %w", err)
		}
		if err := ch.QueueBind(t.deadLetterQueue(), "#", t.DeadLetterExchange, false, nil); err != nil {
			return fmt.Errorf("bind dead-letter queue: %w", err)
		}
		args["x-dead-letter-exchange"] = t.DeadLetterExchange
	}

	q, err := ch.QueueDeclare(t.Queue, true, false, false, false, args)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", t.Queue, err)
	}
	for _, key := range t.Bindings {
		if err := ch.QueueBind(q.Name, key, t.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, t.Exchange, err)
		}
	}

	prefetch := t.Prefetch
	if prefetch <= 0 {
		prefetch = 8
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	return nil
}

// dial opens a connection and a channel.
func dial(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	return conn, ch, nil
}
