package repositories

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func countKeysWithPrefix(t *testing.T, db *badger.DB, prefix string) int {
	t.Helper()
	count := 0
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	require.NoError(t, err)
	return count
}

func TestMessageRepository_Store_Multiple_Messages(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewMessageRepository(db, slog.Default())

	room := 1
	at := time.Now().UTC()
	messages := []DiskMessage{
		{ID: uuid.New(), Room: room, Author: "Alice", Content: "hello", At: at},
		{ID: uuid.New(), Room: room, Author: "Bob", Content: "hi", At: at.Add(time.Minute)},
		{ID: uuid.New(), Room: room, Author: "Clara", Content: "hey", At: at.Add(2 * time.Minute)},
	}
	for _, dm := range messages {
		req.NoError(repository.StoreMessage(dm))
	}

	req.Equal(len(messages), countKeysWithPrefix(t, db, "msg:1:"))
}

func TestMessageRepository_Rooms_Are_Isolated_By_Prefix(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewMessageRepository(db, slog.Default())

	at := time.Now().UTC()
	req.NoError(repository.StoreMessage(DiskMessage{ID: uuid.New(), Room: 1, Author: "Alice", Content: "a", At: at}))
	req.NoError(repository.StoreMessage(DiskMessage{ID: uuid.New(), Room: 2, Author: "Bob", Content: "b", At: at}))

	req.Equal(1, countKeysWithPrefix(t, db, "msg:1:"))
	req.Equal(1, countKeysWithPrefix(t, db, "msg:2:"))
}

func TestMessageRepository_Same_Instant_Does_Not_Collide(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewMessageRepository(db, slog.Default())

	// Two messages at the exact same nanosecond: the UUID key segment keeps
	// them distinct.
	at := time.Now().UTC()
	req.NoError(repository.StoreMessage(DiskMessage{ID: uuid.New(), Room: 1, Author: "Alice", Content: "a", At: at}))
	req.NoError(repository.StoreMessage(DiskMessage{ID: uuid.New(), Room: 1, Author: "Bob", Content: "b", At: at}))

	req.Equal(2, countKeysWithPrefix(t, db, "msg:1:"))
}
