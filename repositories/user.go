package repositories

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// DiskUser is the stored representation of a user.
// Unlike domain.User it serializes the password hash.
type DiskUser struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}

// AddUser stores a new user and its username index in one transaction.
// A username already present fails with ErrUserAlreadyExists and leaves the
// stored record untouched. Two concurrent registrations of the same username
// conflict in Badger; the retry then observes the winner's index entry.
func (s *Store) AddUser(user domain.User) error {
	data, err := json.Marshal(fromUser(user))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return s.update(func(txn *badger.Txn) error {
		_, err := txn.Get(usernameKey(user.Username))
		switch {
		case err == nil:
			return errors.ErrUserAlreadyExists
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		if err := txn.Set(userKey(user.ID), data); err != nil {
			return err
		}
		return txn.Set(usernameKey(user.Username), []byte(user.ID))
	})
}

func (s *Store) GetUser(id domain.UserID) (domain.User, error) {
	var user domain.User
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = readUser(txn, id)
		return err
	})
	return user, err
}

// GetUserByUsername resolves the username index then the user record.
func (s *Store) GetUserByUsername(username string) (domain.User, error) {
	var user domain.User
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(usernameKey(username))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		user, err = readUser(txn, domain.UserID(id))
		return err
	})
	return user, err
}

func readUser(txn *badger.Txn, id domain.UserID) (domain.User, error) {
	item, err := txn.Get(userKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, errors.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	var disk DiskUser
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &disk)
	})
	return toUser(disk), err
}

func userKey(id domain.UserID) []byte {
	return []byte(userPrefix + string(id))
}

func usernameKey(username string) []byte {
	return []byte(usernamePrefix + username)
}

func fromUser(user domain.User) DiskUser {
	return DiskUser{
		ID:           string(user.ID),
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
	}
}

func toUser(disk DiskUser) domain.User {
	return domain.User{
		ID:           domain.UserID(disk.ID),
		Username:     disk.Username,
		PasswordHash: disk.PasswordHash,
	}
}
