// Package domain contains core concepts of the chat system.
// This file defines Message entities. Messages are immutable.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable chat message.
type Message struct {
	ID        uuid.UUID
	Room      RoomID
	SenderID  string
	Sender    string // display name carried on the wire
	Content   string
	CreatedAt time.Time
}
