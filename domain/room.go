// Package domain contains core concepts of the chat system.
// This file defines ChatRoom entities and membership invariants.
// No runtime, network, or storage logic should be added here.
package domain

import (
	"chat-relay/errors"

	"github.com/samber/lo"
)

// RoomCapacity bounds the member set of every chatroom.
const RoomCapacity = 1024

type RoomID int

// ChatRoom is a named set of principals with a capacity bound.
// The admin is implicitly a member from creation on. Rooms are mutated only
// through Join and Leave so the |members| <= RoomCapacity invariant holds.
type ChatRoom struct {
	ID      RoomID
	Name    string
	Admin   string
	members map[string]struct{}
}

// NewChatRoom builds a room with the given member set.
// The admin is added to the members if not already present; the initial list
// is trusted and not checked against capacity.
func NewChatRoom(id RoomID, name, admin string, members []string) *ChatRoom {
	set := make(map[string]struct{}, len(members)+1)
	for _, m := range members {
		set[m] = struct{}{}
	}
	if admin != "" {
		set[admin] = struct{}{}
	}
	return &ChatRoom{ID: id, Name: name, Admin: admin, members: set}
}

func (r *ChatRoom) IsMember(userID string) bool {
	_, ok := r.members[userID]
	return ok
}

func (r *ChatRoom) MemberCount() int {
	return len(r.members)
}

// Members returns the member set as a slice. Order is unspecified.
func (r *ChatRoom) Members() []string {
	return lo.Keys(r.members)
}

// Join adds a principal to the room.
// Checks run in a fixed order: current membership first, then capacity.
// The caller is responsible for serializing Join calls on the same room.
func (r *ChatRoom) Join(userID string) error {
	if r.IsMember(userID) {
		return errors.ErrAlreadyMember
	}
	if len(r.members) >= RoomCapacity {
		return errors.ErrRoomFull
	}
	r.members[userID] = struct{}{}
	return nil
}

// Leave removes a principal from the room.
// Leaving twice yields ErrNotAMember the second time, never a failure.
func (r *ChatRoom) Leave(userID string) error {
	if !r.IsMember(userID) {
		return errors.ErrNotAMember
	}
	delete(r.members, userID)
	return nil
}
