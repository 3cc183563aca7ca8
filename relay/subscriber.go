package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chat-relay/contract"

	amqp "github.com/rabbitmq/amqp091-go"
)

const initialReconnectDelay = 500 * time.Millisecond

// Subscriber is the long-lived consumer side of the relay, run under the
// supervisor for the lifetime of the process. It owns a durable queue bound
// to the fan-out exchange with no routing key: every subscriber instance
// receives every event and delivers only to its own locally registered
// connections through the registry. Prefetch is one in-flight message so the
// broker's delivery order is preserved into broadcast calls.
type Subscriber struct {
	log        *slog.Logger
	url        string
	exchange   string
	queue      string
	registry   contract.IRegistry
	maxBackoff time.Duration
	dial       func(url string) (*amqp.Connection, error)
}

func NewSubscriber(log *slog.Logger, url, exchange, queue string,
	registry contract.IRegistry, maxBackoff time.Duration) *Subscriber {
	return &Subscriber{
		log:        log,
		url:        url,
		exchange:   exchange,
		queue:      queue,
		registry:   registry,
		maxBackoff: maxBackoff,
		dial:       amqp.Dial,
	}
}

// Run consumes until the context ends. A lost broker connection is redialed
// with capped exponential backoff and consumption resumes on the same
// durable queue; messages acknowledged before the disconnect are not
// redelivered.
func (s *Subscriber) Run(ctx context.Context) error {
	delay := initialReconnectDelay
	for {
		if ctx.Err() != nil {
			return nil
		}

		conn, err := s.dial(s.url)
		if err != nil {
			s.log.Warn("Broker unreachable, retrying", "delay", delay, "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			delay = min(delay*2, s.maxBackoff)
			continue
		}
		delay = initialReconnectDelay

		err = s.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			s.log.Warn("Consumption interrupted, reconnecting", "error", err)
		}
	}
}

// consume declares the topology and processes deliveries until the session
// breaks or the context ends.
func (s *Subscriber) consume(ctx context.Context, conn *amqp.Connection) error {
	channel, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer channel.Close()

	if err := channel.ExchangeDeclare(
		s.exchange, amqp.ExchangeFanout, true, false, false, false, nil,
	); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := channel.QueueDeclare(
		s.queue, true, false, false, false, nil,
	); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	// Empty routing key: the fan-out exchange delivers everything.
	if err := channel.QueueBind(s.queue, "", s.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	// One in-flight message preserves per-room processing order.
	if err := channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := channel.Consume(s.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consume: %w", err)
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return nil
		case amqpErr := <-closed:
			return fmt.Errorf("connection closed: %v", amqpErr)
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			s.handle(ctx, delivery)
		}
	}
}

// handle broadcasts one delivery to the local registry.
// Malformed payloads are acknowledged and dropped: requeueing a poison
// message forever would wedge the worker behind it.
func (s *Subscriber) handle(ctx context.Context, delivery amqp.Delivery) {
	wire, err := DecodeWireEvent(delivery.Body)
	if err != nil {
		s.log.Warn("Dropping malformed relay payload", "error", err)
		_ = delivery.Ack(false)
		return
	}

	evt, err := wire.DomainEvent()
	if err != nil {
		s.log.Warn("Dropping relay payload with unknown purpose",
			"purpose", wire.Purpose, "error", err)
		_ = delivery.Ack(false)
		return
	}

	s.registry.Broadcast(ctx, evt.RoomID(), evt)
	if err := delivery.Ack(false); err != nil {
		s.log.Warn("Ack failed", "error", err)
	}
}
