package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"chat-relay/domain/event"
	"chat-relay/errors"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher hands domain events to the broker exchange for durable fan-out.
// It opens its connection lazily and reuses it across publishes; a broken
// connection is dropped and redialed on the next call. One Publisher is
// shared by the whole process and is safe for concurrent use.
type Publisher struct {
	mu       sync.Mutex
	log      *slog.Logger
	url      string
	exchange string
	conn     *amqp.Connection
	channel  *amqp.Channel
}

func NewPublisher(log *slog.Logger, url, exchange string) *Publisher {
	return &Publisher{log: log, url: url, exchange: exchange}
}

// Publish serializes the event and publishes it to the fan-out exchange,
// marked for durable delivery. An unreachable broker is reported as
// ErrRelayUnavailable; the caller decides how to surface it, but a failed
// publish means no other participant sees the event, so it is never
// swallowed here.
func (p *Publisher) Publish(ctx context.Context, e event.DomainEvent) error {
	wire, err := Encode(e)
	if err != nil {
		return err
	}
	body, err := json.Marshal(wire)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPublishFailed, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	channel, err := p.ensureChannel()
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrRelayUnavailable, err)
	}

	err = channel.PublishWithContext(ctx,
		p.exchange,
		"", // fan-out exchange ignores the routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
	if err != nil {
		// The channel is unusable after a failed publish; drop it so the
		// next call redials.
		p.reset()
		return fmt.Errorf("%w: %v", errors.ErrPublishFailed, err)
	}
	return nil
}

// ensureChannel returns the cached channel, dialing the broker and declaring
// the exchange when needed. The declaration is idempotent on the broker side.
func (p *Publisher) ensureChannel() (*amqp.Channel, error) {
	if p.channel != nil && p.conn != nil && !p.conn.IsClosed() {
		return p.channel, nil
	}
	p.reset()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, err
	}
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := channel.ExchangeDeclare(
		p.exchange,
		amqp.ExchangeFanout,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	); err != nil {
		_ = conn.Close()
		return nil, err
	}

	p.conn = conn
	p.channel = channel
	return p.channel, nil
}

func (p *Publisher) reset() {
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn = nil
	p.channel = nil
}

// Close releases the broker connection. Part of process shutdown.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
}
