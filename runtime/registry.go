// Package runtime owns the process-local state of the real-time surface:
// which connections are alive, which room each one watches, and the
// supervised workers that feed them.
package runtime

import (
	"context"
	"sync"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
)

type Set map[string]struct{}

// Registry maps rooms to the live connections subscribed to them.
// It is shared mutable state: many connection goroutines subscribe and
// unsubscribe while the relay subscriber broadcasts, so every access goes
// through one RWMutex. The registry is local to one process; the event relay
// exists so that every process observes every event.
type Registry struct {
	mu          sync.RWMutex
	Sessions    map[string]contract.EventSink // map connection id -> sink
	RoomMembers map[domain.RoomID]Set         // map room -> connection ids
}

func NewRegistry() *Registry {
	return &Registry{
		Sessions:    make(map[string]contract.EventSink),
		RoomMembers: make(map[domain.RoomID]Set),
	}
}

// SinksForRoom retrieves all active sinks for a specific room.
// It performs a two-step lookup:
//  1. Identifies connection IDs associated with the room via RoomMembers.
//  2. Resolves those IDs into actual EventSinks using the Sessions map.
//
// Returns nil if the room doesn't exist or has no live connections.
func (r *Registry) SinksForRoom(roomID domain.RoomID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.RoomMembers[roomID]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for connID := range members {
		if sink, exists := r.Sessions[connID]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// SessionCount reports the number of live connections.
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Sessions)
}

// Subscribe registers a connection's sink and assigns it to a room.
// If the room does not yet exist in the registry, it is initialized on the
// fly.
func (r *Registry) Subscribe(connID string, roomID domain.RoomID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Sessions[connID] = sink

	if _, ok := r.RoomMembers[roomID]; !ok {
		r.RoomMembers[roomID] = make(Set)
	}
	r.RoomMembers[roomID][connID] = struct{}{}
}

// Unsubscribe removes a connection from the registry and its room.
// It prunes empty room entries so the maps don't leak over time. Calling it
// for an unknown connection is a no-op, which makes teardown unconditional.
func (r *Registry) Unsubscribe(connID string, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.Sessions, connID)

	if members, ok := r.RoomMembers[roomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.RoomMembers, roomID)
		}
	}
}

// Broadcast delivers the event to every sink subscribed to the room at the
// time of the call. Connections joining afterwards are not guaranteed
// delivery of this event; a connection mid-teardown may or may not receive
// it. Sink errors are deliberately ignored here: a sink that cannot keep up
// drops events rather than stalling the relay.
func (r *Registry) Broadcast(ctx context.Context, roomID domain.RoomID, e event.DomainEvent) {
	for _, sink := range r.SinksForRoom(roomID) {
		_ = sink.Consume(ctx, e)
	}
}
