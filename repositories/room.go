//go:generate go run go.uber.org/mock/mockgen -source=room.go -destination=../mocks/mock_room_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	stderrors "errors"

	"chat-relay/errors"

	"github.com/dgraph-io/badger/v4"
)

type IRoomRepository interface {
	CreateRoom(name, admin string, members []string) (DiskRoom, error)
	GetRoom(id int) (DiskRoom, error)
	SaveRoom(room DiskRoom) error
	Close() error
}

// DiskRoom is the storage representation of a chatroom.
type DiskRoom struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Admin     string    `json:"admin"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

type RoomRepository struct {
	db  *badger.DB
	seq *badger.Sequence
}

// NewRoomRepository reserves a badger sequence for room identifiers.
// Callers must Close the repository to release unused sequence leases.
func NewRoomRepository(db *badger.DB) (*RoomRepository, error) {
	seq, err := db.GetSequence([]byte("seq:room"), 64)
	if err != nil {
		return nil, fmt.Errorf("room id sequence: %w", err)
	}
	return &RoomRepository{db: db, seq: seq}, nil
}

func (r *RoomRepository) Close() error {
	return r.seq.Release()
}

func roomKey(id int) []byte {
	// Zero padding keeps keys sorted numerically for prefix scans.
	return []byte(fmt.Sprintf("room:%010d", id))
}

// CreateRoom persists a new room. Creation always succeeds; the supplied
// member list is trusted and not checked against capacity.
func (r *RoomRepository) CreateRoom(name, admin string, members []string) (DiskRoom, error) {
	next, err := r.seq.Next()
	if err != nil {
		return DiskRoom{}, fmt.Errorf("room id sequence: %w", err)
	}

	room := DiskRoom{
		// Sequence starts at zero; room ids start at one.
		ID:        int(next) + 1,
		Name:      name,
		Admin:     admin,
		Members:   members,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.SaveRoom(room); err != nil {
		return DiskRoom{}, err
	}
	return room, nil
}

func (r *RoomRepository) GetRoom(id int) (DiskRoom, error) {
	var room DiskRoom
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(roomKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &room)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return DiskRoom{}, errors.ErrRoomNotFound
	}
	if err != nil {
		return DiskRoom{}, err
	}
	return room, nil
}

func (r *RoomRepository) SaveRoom(room DiskRoom) error {
	bytes, err := json.Marshal(room)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(roomKey(room.ID), bytes)
	})
}
