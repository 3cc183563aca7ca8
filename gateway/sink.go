package gateway

import (
	"context"

	"chat-relay/domain/event"
)

// ConnSink buffers broadcast events for one connection. The relay subscriber
// calls Consume from its single consumer goroutine; the connection's write
// pump drains Events. A full buffer drops the event instead of blocking, so
// one slow client never stalls delivery to the rest of the room.
type ConnSink struct {
	events chan event.DomainEvent
	done   chan struct{}
}

func NewConnSink(bufferSize int) *ConnSink {
	return &ConnSink{
		events: make(chan event.DomainEvent, bufferSize),
		done:   make(chan struct{}),
	}
}

func (s *ConnSink) Consume(_ context.Context, e event.DomainEvent) error {
	select {
	case <-s.done:
		return nil
	default:
	}
	select {
	case s.events <- e:
	default:
		// buffer full, drop
	}
	return nil
}

func (s *ConnSink) Events() <-chan event.DomainEvent {
	return s.events
}

// Close stops accepting events. Safe to call once, from the owning
// connection's teardown.
func (s *ConnSink) Close() {
	close(s.done)
}
