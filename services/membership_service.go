//go:generate go run go.uber.org/mock/mockgen -source=membership_service.go -destination=../mocks/mock_membership_service.go -package=mocks
package services

import (
	"context"
	"sync"

	"chat-relay/domain"
	"chat-relay/repositories"
)

// IMembershipService owns room membership and capacity.
// It is free of I/O side effects beyond persistence: the caller (HTTP path
// or connection gateway) emits the corresponding domain event on success,
// which keeps this service independently testable.
type IMembershipService interface {
	Create(ctx context.Context, name, admin string, members []string) (*domain.ChatRoom, error)
	Join(ctx context.Context, roomID domain.RoomID, userID string) (*domain.ChatRoom, error)
	Leave(ctx context.Context, roomID domain.RoomID, userID string) (*domain.ChatRoom, error)
	IsMember(ctx context.Context, roomID domain.RoomID, userID string) (bool, error)
}

type MembershipService struct {
	roomRepository repositories.IRoomRepository

	// Per-room locks serialize the read-check-write cycle of Join and Leave.
	// Without them two joins at capacity-1 could both observe space and both
	// succeed, breaking the |members| <= RoomCapacity invariant.
	mu    sync.Mutex
	locks map[domain.RoomID]*sync.Mutex
}

func NewMembershipService(roomRepository repositories.IRoomRepository) *MembershipService {
	return &MembershipService{
		roomRepository: roomRepository,
		locks:          make(map[domain.RoomID]*sync.Mutex),
	}
}

func (s *MembershipService) roomLock(roomID domain.RoomID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[roomID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[roomID] = lock
	}
	return lock
}

// Create persists a new room. It always succeeds: the admin is added to the
// initial members if absent and the supplied list is trusted without a
// capacity check.
func (s *MembershipService) Create(_ context.Context, name, admin string, members []string) (*domain.ChatRoom, error) {
	room := domain.NewChatRoom(0, name, admin, members)
	record, err := s.roomRepository.CreateRoom(name, admin, room.Members())
	if err != nil {
		return nil, err
	}
	return toChatRoom(record), nil
}

// Join adds the principal to the room. Checks run in order: room existence,
// current membership (no-op, ErrAlreadyMember), capacity (ErrRoomFull).
// The per-room lock makes the sequence atomic under concurrent joins.
func (s *MembershipService) Join(_ context.Context, roomID domain.RoomID, userID string) (*domain.ChatRoom, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	record, err := s.roomRepository.GetRoom(int(roomID))
	if err != nil {
		return nil, err
	}
	room := toChatRoom(record)
	if err := room.Join(userID); err != nil {
		return nil, err
	}

	record.Members = room.Members()
	if err := s.roomRepository.SaveRoom(record); err != nil {
		return nil, err
	}
	return room, nil
}

// Leave removes the principal from the room. Idempotent: leaving twice
// yields ErrNotAMember the second time, never a failure.
func (s *MembershipService) Leave(_ context.Context, roomID domain.RoomID, userID string) (*domain.ChatRoom, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	record, err := s.roomRepository.GetRoom(int(roomID))
	if err != nil {
		return nil, err
	}
	room := toChatRoom(record)
	if err := room.Leave(userID); err != nil {
		return nil, err
	}

	record.Members = room.Members()
	if err := s.roomRepository.SaveRoom(record); err != nil {
		return nil, err
	}
	return room, nil
}

// IsMember reports whether the principal currently belongs to that specific
// room.
func (s *MembershipService) IsMember(_ context.Context, roomID domain.RoomID, userID string) (bool, error) {
	record, err := s.roomRepository.GetRoom(int(roomID))
	if err != nil {
		return false, err
	}
	return toChatRoom(record).IsMember(userID), nil
}

func toChatRoom(record repositories.DiskRoom) *domain.ChatRoom {
	return domain.NewChatRoom(domain.RoomID(record.ID), record.Name, record.Admin, record.Members)
}
