// Package event defines the domain events exchanged through the relay.
// Events are ephemeral: constructed by the write path, serialized for
// transport, consumed once per subscriber instance, discarded after
// broadcast.
package event

import (
	"time"

	"chat-relay/domain"

	"github.com/google/uuid"
)

type DomainEvent interface {
	RoomID() domain.RoomID
}

// MessageCreated is emitted after a chat message has been persisted.
type MessageCreated struct {
	ID      uuid.UUID
	Room    int
	Sender  string // display name, carried on the wire as-is
	Content string
	At      time.Time
}

func (m MessageCreated) RoomID() domain.RoomID {
	return domain.RoomID(m.Room)
}

// MemberJoined is emitted after a principal has been added to a room.
type MemberJoined struct {
	Room   int
	UserID string
	Name   string
}

func (m MemberJoined) RoomID() domain.RoomID {
	return domain.RoomID(m.Room)
}

// MemberLeft is emitted after a principal has been removed from a room.
type MemberLeft struct {
	Room   int
	UserID string
	Name   string
}

func (m MemberLeft) RoomID() domain.RoomID {
	return domain.RoomID(m.Room)
}
