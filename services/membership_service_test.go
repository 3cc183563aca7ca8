package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func newMembershipFixture(t *testing.T) *MembershipService {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	roomRepository, err := repositories.NewRoomRepository(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = roomRepository.Close() })

	return NewMembershipService(roomRepository)
}

func TestMembershipService_Create_Adds_The_Admin(t *testing.T) {
	req := require.New(t)
	service := newMembershipFixture(t)
	ctx := context.Background()

	room, err := service.Create(ctx, "general", "alice", []string{"bob"})
	req.NoError(err)
	req.True(room.IsMember("alice"))
	req.True(room.IsMember("bob"))
	req.Equal(2, room.MemberCount())
}

func TestMembershipService_Join_Then_Leave(t *testing.T) {
	req := require.New(t)
	service := newMembershipFixture(t)
	ctx := context.Background()

	room, err := service.Create(ctx, "general", "alice", nil)
	req.NoError(err)

	// When clara joins
	updated, err := service.Join(ctx, room.ID, "clara")
	req.NoError(err)
	req.True(updated.IsMember("clara"))

	// Then membership survives a reload
	isMember, err := service.IsMember(ctx, room.ID, "clara")
	req.NoError(err)
	req.True(isMember)

	// When clara leaves
	_, err = service.Leave(ctx, room.ID, "clara")
	req.NoError(err)

	isMember, err = service.IsMember(ctx, room.ID, "clara")
	req.NoError(err)
	req.False(isMember)
}

func TestMembershipService_Join_Unknown_Room(t *testing.T) {
	req := require.New(t)
	service := newMembershipFixture(t)

	_, err := service.Join(context.Background(), domain.RoomID(999), "clara")
	req.ErrorIs(err, errors.ErrRoomNotFound)
}

func TestMembershipService_Join_Twice(t *testing.T) {
	req := require.New(t)
	service := newMembershipFixture(t)
	ctx := context.Background()

	room, err := service.Create(ctx, "general", "alice", nil)
	req.NoError(err)

	_, err = service.Join(ctx, room.ID, "clara")
	req.NoError(err)
	_, err = service.Join(ctx, room.ID, "clara")
	req.ErrorIs(err, errors.ErrAlreadyMember)
}

func TestMembershipService_Leave_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	service := newMembershipFixture(t)
	ctx := context.Background()

	room, err := service.Create(ctx, "general", "alice", nil)
	req.NoError(err)

	_, err = service.Leave(ctx, room.ID, "nobody")
	req.ErrorIs(err, errors.ErrNotAMember)
}

func TestMembershipService_Concurrent_Joins_Respect_Capacity(t *testing.T) {
	req := require.New(t)
	service := newMembershipFixture(t)
	ctx := context.Background()

	// Given a room one seat away from capacity
	members := make([]string, 0, domain.RoomCapacity-1)
	for i := 0; i < domain.RoomCapacity-2; i++ {
		members = append(members, fmt.Sprintf("user-%d", i))
	}
	room, err := service.Create(ctx, "crowded", "alice", members)
	req.NoError(err)
	req.Equal(domain.RoomCapacity-1, room.MemberCount())

	// When many principals race for the last seat
	const contenders = 16
	var wg sync.WaitGroup
	successes := make(chan string, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if _, err := service.Join(ctx, room.ID, fmt.Sprintf("contender-%d", id)); err == nil {
				successes <- fmt.Sprintf("contender-%d", id)
			}
		}(i)
	}
	wg.Wait()
	close(successes)

	// Then exactly one join won and the stored room sits at capacity
	req.Len(successes, 1)
	fetched, err := service.Join(ctx, room.ID, "one-too-many")
	req.ErrorIs(err, errors.ErrRoomFull)
	req.Nil(fetched)

	winner := <-successes
	isMember, err := service.IsMember(ctx, room.ID, winner)
	req.NoError(err)
	req.True(isMember)
}
