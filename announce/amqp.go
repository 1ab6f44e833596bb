package announce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// DefaultExchange is the topic exchange announcements are published on.
	DefaultExchange = "groupbuy_announcements"

	// DefaultQueue is the durable queue the pusher consumes from.
	DefaultQueue = "groupbuy_announce_queue"

	routingPrefix = "groupbuy.announce."
)

// RoutingKey returns the routing key for an announcement kind.
func RoutingKey(kind string) string { return routingPrefix + kind }

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher is a Sink that queues announcements on a topic exchange.
type Publisher struct {
	ch       publishChannel
	exchange string
}

// NewPublisher publishes on exchange through ch.
func NewPublisher(ch publishChannel, exchange string) *Publisher {
	if exchange == "" {
		exchange = DefaultExchange
	}
	return &Publisher{ch: ch, exchange: exchange}
}

// Announce implements Sink.
func (p *Publisher) Announce(ctx context.Context, a Announcement) error {
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("announce: marshal: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		p.exchange,
		RoutingKey(a.Kind),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    a.ID,
			Timestamp:    a.CreatedAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("announce: publish to %s: %w", p.exchange, err)
	}
	return nil
}

// Consume delivers queued announcements to sink until deliveries closes or
// ctx is done. A failed delivery is requeued; an undecodable message is
// dropped.
func Consume(ctx context.Context, deliveries <-chan amqp.Delivery, sink Sink, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			handleDelivery(ctx, d, sink, logger)
		}
	}
}

func handleDelivery(ctx context.Context, d amqp.Delivery, sink Sink, logger *slog.Logger) {
	var a Announcement
	if err := json.Unmarshal(d.Body, &a); err != nil {
		logger.Error("dropping undecodable announcement",
			"message_id", d.MessageId,
			"routing_key", d.RoutingKey,
			"error", err,
		)
		_ = d.Nack(false, false)
		return
	}

	if err := sink.Announce(ctx, a); err != nil {
		logger.Warn("announcement delivery failed, requeueing",
			"id", a.ID,
			"redelivered", d.Redelivered,
			"error", err,
		)
		_ = d.Nack(false, true)
		return
	}

	_ = d.Ack(false)
}

// Broker owns the RabbitMQ connection used for announcements.
type Broker struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// Dial connects to url and declares the announcement exchange.
func Dial(url, exchange string) (*Broker, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("announce: dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("announce: open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("announce: declare exchange %s: %w", exchange, err)
	}

	return &Broker{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publisher returns a Sink publishing on the broker's exchange.
func (b *Broker) Publisher() *Publisher {
	return NewPublisher(b.ch, b.exchange)
}

// Subscribe declares queue, binds it to every announcement kind and starts
// consuming on a dedicated channel.
func (b *Broker) Subscribe(queue string) (<-chan amqp.Delivery, error) {
	if queue == "" {
		queue = DefaultQueue
	}

	ch, err := b.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("announce: open channel: %w", err)
	}

	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("announce: declare queue %s: %w", queue, err)
	}

	if err := ch.QueueBind(q.Name, routingPrefix+"#", b.exchange, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("announce: bind queue %s: %w", queue, err)
	}

	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("announce: set qos: %w", err)
	}

	deliveries, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("announce: consume %s: %w", queue, err)
	}
	return deliveries, nil
}

// Close closes the channel and the connection.
func (b *Broker) Close() error {
	return errors.Join(b.ch.Close(), b.conn.Close())
}
