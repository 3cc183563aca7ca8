package runtime

import (
	"context"
	"testing"

	"chat-relay/domain"
	"chat-relay/domain/event"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// recordingSink captures everything broadcast to it.
type recordingSink struct {
	events []event.DomainEvent
}

func (s *recordingSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.events = append(s.events, e)
	return nil
}

func TestRegistry_Subscribe_One_Room_One_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connID := uuid.NewString()
	roomID := domain.RoomID(1)
	sink := &recordingSink{}

	// Given no connection is registered
	req.Empty(registry.Sessions)
	req.Empty(registry.RoomMembers)

	// When a connection subscribes to a room
	registry.Subscribe(connID, roomID, sink)

	// Then
	req.Len(registry.Sessions, 1)
	req.Len(registry.RoomMembers, 1)
	req.Contains(registry.RoomMembers[roomID], connID)
	req.Len(registry.SinksForRoom(roomID), 1)
}

func TestRegistry_Subscribe_One_Room_Multiple_Connections(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	roomID := domain.RoomID(1)

	registry.Subscribe(uuid.NewString(), roomID, &recordingSink{})
	registry.Subscribe(uuid.NewString(), roomID, &recordingSink{})

	req.Len(registry.Sessions, 2)
	req.Len(registry.RoomMembers[roomID], 2)
	req.Len(registry.SinksForRoom(roomID), 2)
}

func TestRegistry_Unsubscribe_Prunes_Empty_Room(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connID := uuid.NewString()
	roomID := domain.RoomID(1)

	// Given a connection subscribed to a room
	registry.Subscribe(connID, roomID, &recordingSink{})

	// When it unsubscribes
	registry.Unsubscribe(connID, roomID)

	// Then no connection is left and the room entry is gone
	req.Empty(registry.Sessions)
	req.Empty(registry.RoomMembers)
	req.Empty(registry.SinksForRoom(roomID))
}

func TestRegistry_Unsubscribe_Unknown_Connection_Is_A_Noop(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	registry.Unsubscribe(uuid.NewString(), domain.RoomID(1))

	req.Empty(registry.Sessions)
	req.Empty(registry.RoomMembers)
}

func TestRegistry_Broadcast_Reaches_Only_Room_Subscribers(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sinkInRoom1 := &recordingSink{}
	sinkInRoom1Too := &recordingSink{}
	sinkInRoom2 := &recordingSink{}

	registry.Subscribe(uuid.NewString(), domain.RoomID(1), sinkInRoom1)
	registry.Subscribe(uuid.NewString(), domain.RoomID(1), sinkInRoom1Too)
	registry.Subscribe(uuid.NewString(), domain.RoomID(2), sinkInRoom2)

	// When an event is broadcast to room 1
	evt := event.MessageCreated{Room: 1, Sender: "alice", Content: "hello"}
	registry.Broadcast(context.Background(), domain.RoomID(1), evt)

	// Then every room 1 sink received it and room 2 observed nothing
	req.Len(sinkInRoom1.events, 1)
	req.Len(sinkInRoom1Too.events, 1)
	req.Equal(evt, sinkInRoom1.events[0])
	req.Empty(sinkInRoom2.events)
}

func TestRegistry_Broadcast_To_Empty_Room_Is_A_Noop(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	registry.Broadcast(context.Background(), domain.RoomID(42),
		event.MemberJoined{Room: 42, Name: "alice"})

	req.Empty(registry.Sessions)
}
