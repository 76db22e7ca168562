// Package repositories holds the process-lifetime store of users, chats and messages.
// It is backed by an in-memory BadgerDB: every read runs in a snapshot
// transaction and every write in an optimistic transaction retried on conflict.
package repositories

import (
	"chat-hub/contract"
	"chat-hub/errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

const (
	userPrefix     = "user:"
	usernamePrefix = "username:"
	chatPrefix     = "chat:"
	messagePrefix  = "msg:"
	sequenceKey    = "seq:msg"

	sequenceBandwidth  = 1000
	maxConflictRetries = 16
)

var _ contract.IStore = (*Store)(nil)

type Store struct {
	db  *badger.DB
	seq *badger.Sequence
	log *slog.Logger
}

// OpenInMemory opens a volatile Badger instance. Nothing survives the process.
func OpenInMemory(log *slog.Logger) (*Store, error) {
	options := badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("database opening failed: %w", err)
	}
	store, err := NewStore(db, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewStore wraps an already opened database.
func NewStore(db *badger.DB, log *slog.Logger) (*Store, error) {
	seq, err := db.GetSequence([]byte(sequenceKey), sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	return &Store{db: db, seq: seq, log: log}, nil
}

// Close releases the message sequence lease and the database.
func (s *Store) Close() error {
	if err := s.seq.Release(); err != nil {
		s.log.Warn("Failed to release message sequence", "error", err)
	}
	return s.db.Close()
}

// update runs fn in a read-write transaction and retries when Badger detects
// that a concurrent transaction committed a key fn has read.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return mapError(err)
		}
		s.log.Debug("Transaction conflict, retrying", "attempt", attempt+1)
	}
	return err
}

func mapError(err error) error {
	if errors.Is(err, badger.ErrTxnTooBig) {
		return fmt.Errorf("%w: %v", errors.ErrStoreExhausted, err)
	}
	return err
}

// Scan visits every key starting with prefix in key order.
// val is only valid during the call.
func (s *Store) Scan(prefix string, fn func(key string, val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			key := string(item.KeyCopy(nil))
			if err := item.Value(func(val []byte) error {
				return fn(key, val)
			}); err != nil {
				return err
			}
		}
		return nil
	})
}
