package repositories

import (
	"chat-hub/domain"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// DiskMessage is the stored representation of a message.
type DiskMessage struct {
	ID       uuid.UUID `json:"id"`
	ChatID   string    `json:"chat_id"`
	SenderID string    `json:"sender_id"`
	Content  string    `json:"content"`
	At       int64     `json:"at"`
}

// AppendMessage adds a message at the end of its chat log.
// The key is formatted as "msg:{chat_id}:{sequence_padded}" where the sequence
// is a store-wide counter taken before the write: lexicographical key order is
// insertion order, even when timestamps tie. The log needs no creation step.
func (s *Store) AppendMessage(message domain.Message) error {
	position, err := s.seq.Next()
	if err != nil {
		return mapError(fmt.Errorf("message sequence: %w", err))
	}
	data, err := json.Marshal(fromMessage(message))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return s.update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message.ChatID, position), data)
	})
}

// GetMessages returns the log of a chat in insertion order.
// Chats without messages yield an empty slice.
func (s *Store) GetMessages(id domain.ChatID) ([]domain.Message, error) {
	diskMessages := make([]DiskMessage, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := messagePrefixFor(id)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var disk DiskMessage
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &disk)
			})
			if err != nil {
				return err
			}
			// A chat id containing ':' could share a prefix with another chat.
			if disk.ChatID != string(id) {
				continue
			}
			diskMessages = append(diskMessages, disk)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(diskMessages, func(item DiskMessage, _ int) domain.Message {
		return toMessage(item)
	}), nil
}

func messagePrefixFor(id domain.ChatID) []byte {
	return []byte(fmt.Sprintf("%s%s:", messagePrefix, id))
}

func messageKey(id domain.ChatID, position uint64) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", messagePrefix, id, position))
}

func fromMessage(message domain.Message) DiskMessage {
	return DiskMessage{
		ID:       message.ID,
		ChatID:   string(message.ChatID),
		SenderID: string(message.SenderID),
		Content:  message.Content,
		At:       message.CreatedAt.UnixNano(),
	}
}

func toMessage(disk DiskMessage) domain.Message {
	return domain.Message{
		ID:        disk.ID,
		ChatID:    domain.ChatID(disk.ChatID),
		SenderID:  domain.UserID(disk.SenderID),
		Content:   disk.Content,
		CreatedAt: time.Unix(0, disk.At).UTC(),
	}
}
