// Package relay bridges the write path and the broadcast path through a
// RabbitMQ fan-out exchange. The publisher runs inside the write path; the
// subscriber is a supervised worker that feeds the local registry. Both ends
// share the flat wire schema defined here, which must remain stable across
// process versions during a rolling deploy.
package relay

import (
	"encoding/json"
	"fmt"

	"chat-relay/domain/event"
	"chat-relay/errors"
)

const (
	PurposeNewChatMessage = "new_chat_message"
	PurposeMemberJoined   = "member_joined"
	PurposeMemberLeft     = "member_left"
)

// WireEvent is the broker payload. Field names and types are the bit-exact
// contract between publisher and subscriber.
type WireEvent struct {
	Purpose string `json:"purpose"`
	ChatID  int    `json:"chat_id"`
	Message string `json:"message"`
	Sender  string `json:"sender"`
}

// Encode flattens a domain event into its wire representation.
func Encode(e event.DomainEvent) (WireEvent, error) {
	switch evt := e.(type) {
	case event.MessageCreated:
		return WireEvent{
			Purpose: PurposeNewChatMessage,
			ChatID:  evt.Room,
			Message: evt.Content,
			Sender:  evt.Sender,
		}, nil
	case event.MemberJoined:
		return WireEvent{
			Purpose: PurposeMemberJoined,
			ChatID:  evt.Room,
			Sender:  evt.Name,
		}, nil
	case event.MemberLeft:
		return WireEvent{
			Purpose: PurposeMemberLeft,
			ChatID:  evt.Room,
			Sender:  evt.Name,
		}, nil
	default:
		return WireEvent{}, fmt.Errorf("%w: unsupported event %T", errors.ErrMalformedFrame, e)
	}
}

// DomainEvent rebuilds the domain event carried by a wire record.
func (w WireEvent) DomainEvent() (event.DomainEvent, error) {
	switch w.Purpose {
	case PurposeNewChatMessage:
		return event.MessageCreated{Room: w.ChatID, Sender: w.Sender, Content: w.Message}, nil
	case PurposeMemberJoined:
		return event.MemberJoined{Room: w.ChatID, Name: w.Sender}, nil
	case PurposeMemberLeft:
		return event.MemberLeft{Room: w.ChatID, Name: w.Sender}, nil
	default:
		return nil, fmt.Errorf("%w: unknown purpose %q", errors.ErrMalformedFrame, w.Purpose)
	}
}

// DecodeWireEvent parses a raw broker payload.
func DecodeWireEvent(body []byte) (WireEvent, error) {
	var w WireEvent
	if err := json.Unmarshal(body, &w); err != nil {
		return WireEvent{}, fmt.Errorf("%w: %v", errors.ErrMalformedFrame, err)
	}
	if w.Purpose == "" {
		return WireEvent{}, fmt.Errorf("%w: missing purpose", errors.ErrMalformedFrame)
	}
	return w, nil
}
