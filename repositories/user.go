//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"chat-relay/domain"
	"chat-relay/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IUserRepository interface {
	CreateUser(username, email, hashedPassword string) (string, error)
	GetUserByEmail(email string) (User, error)
	ResolvePrincipal(ctx context.Context, subjectID string) (domain.Principal, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

// User is the storage representation of an account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
}

func userKey(id string) []byte {
	return []byte("user:id:" + id)
}

func emailKey(email string) []byte {
	return []byte("user:email:" + email)
}

// CreateUser persists the user and an email index entry in one transaction.
// It returns the newly generated user ID.
func (u *UserRepository) CreateUser(username, email, hashedPassword string) (string, error) {
	user := User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		Roles:        []string{"user"},
		CreatedAt:    time.Now().UTC(),
	}

	data, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(emailKey(email)); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(emailKey(email), []byte(user.ID)); err != nil {
			return err
		}
		return txn.Set(userKey(user.ID), data)
	})
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// GetUserByEmail resolves the email index, then loads the account record.
func (u *UserRepository) GetUserByEmail(email string) (User, error) {
	var id string
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(emailKey(email))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err != nil {
		return User{}, err
	}
	return u.getUserByID(id)
}

func (u *UserRepository) getUserByID(id string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// ResolvePrincipal implements the identity lookup the auth gate depends on.
// A missing subject is reported as ErrUnknownPrincipal.
func (u *UserRepository) ResolvePrincipal(_ context.Context, subjectID string) (domain.Principal, error) {
	user, err := u.getUserByID(subjectID)
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Principal{}, errors.ErrUnknownPrincipal
	}
	if err != nil {
		return domain.Principal{}, err
	}
	return domain.Principal{ID: user.ID, Name: user.Username}, nil
}
