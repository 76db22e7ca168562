package repositories

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

// CreateOrReplaceChat upserts a chat keyed by its id.
// It does not merge memberships: callers editing members must serialize
// their read-modify-write per chat id.
func (s *Store) CreateOrReplaceChat(chat domain.Chat) error {
	data, err := json.Marshal(chat)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return s.update(func(txn *badger.Txn) error {
		return txn.Set(chatKey(chat.ID), data)
	})
}

func (s *Store) GetChat(id domain.ChatID) (domain.Chat, error) {
	var chat domain.Chat
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(chatKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrChatNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &chat)
		})
	})
	return chat, err
}

// GetChatsForUser scans every chat and keeps the ones id belongs to.
// The result is unordered.
func (s *Store) GetChatsForUser(id domain.UserID) ([]domain.Chat, error) {
	var chats []domain.Chat
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(chatPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var chat domain.Chat
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &chat)
			})
			if err != nil {
				return err
			}
			chats = append(chats, chat)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lo.Filter(chats, func(chat domain.Chat, _ int) bool {
		return chat.HasMember(id)
	}), nil
}

func chatKey(id domain.ChatID) []byte {
	return []byte(chatPrefix + string(id))
}
