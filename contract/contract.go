//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chat-relay/domain"
	"chat-relay/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself.
// Panics and restarts are the supervisor's job.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding manual naming in the Worker
// interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives broadcast events for one live connection.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry is the process-local index of live connections per room.
// Connections register by reference for their lifetime and are removed on
// teardown. Broadcast delivers to the sinks subscribed at the time of the
// call, best effort.
type IRegistry interface {
	SinksForRoom(roomID domain.RoomID) []EventSink
	Subscribe(connID string, roomID domain.RoomID, sink EventSink)
	Unsubscribe(connID string, roomID domain.RoomID)
	Broadcast(ctx context.Context, roomID domain.RoomID, e event.DomainEvent)
}

// IPublisher hands a domain event to the broker for durable fan-out.
// A failed publish is reported to the caller, never swallowed.
type IPublisher interface {
	Publish(ctx context.Context, e event.DomainEvent) error
}

// IAuthGate validates a raw bearer credential and resolves it to a Principal.
type IAuthGate interface {
	Authenticate(ctx context.Context, rawCredential string) (domain.Principal, error)
}
