package repositories

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenInMemory(logs.GetLoggerFromLevel(slog.LevelError))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_AddUser_Duplicate_Username_Keeps_Original(t *testing.T) {
	req := require.New(t)
	store := newStore(t)
	original := domain.User{ID: domain.UserID(uuid.NewString()), Username: "alice", PasswordHash: "hash-1"}

	// Given alice is registered
	req.NoError(store.AddUser(original))

	// When another user claims the same username
	err := store.AddUser(domain.User{ID: domain.UserID(uuid.NewString()), Username: "alice", PasswordHash: "hash-2"})

	// Then a conflict is returned
	req.ErrorIs(err, errors.ErrUserAlreadyExists)

	// And the original record is intact
	stored, err := store.GetUserByUsername("alice")
	req.NoError(err)
	req.Equal(original, stored)
}

func TestStore_AddUser_Username_Is_Case_Sensitive(t *testing.T) {
	req := require.New(t)
	store := newStore(t)

	req.NoError(store.AddUser(domain.User{ID: "1", Username: "alice"}))
	req.NoError(store.AddUser(domain.User{ID: "2", Username: "Alice"}))

	lower, err := store.GetUserByUsername("alice")
	req.NoError(err)
	upper, err := store.GetUserByUsername("Alice")
	req.NoError(err)
	req.NotEqual(lower.ID, upper.ID)
}

func TestStore_AddUser_Concurrent_Same_Username(t *testing.T) {
	req := require.New(t)
	store := newStore(t)
	const attempts = 20

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results <- store.AddUser(domain.User{
				ID:       domain.UserID(fmt.Sprintf("user-%d", i)),
				Username: "bob",
			})
		}(i)
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		req.ErrorIs(err, errors.ErrUserAlreadyExists)
	}
	req.Equal(1, succeeded)
}

func TestStore_GetUser(t *testing.T) {
	req := require.New(t)
	store := newStore(t)
	user := domain.User{ID: domain.UserID(uuid.NewString()), Username: "clara", PasswordHash: "h"}
	req.NoError(store.AddUser(user))

	fetched, err := store.GetUser(user.ID)
	req.NoError(err)
	req.Equal(user, fetched)

	_, err = store.GetUser("unknown")
	req.ErrorIs(err, errors.ErrUserNotFound)

	_, err = store.GetUserByUsername("unknown")
	req.ErrorIs(err, errors.ErrUserNotFound)
}

func TestStore_Chat_Upsert_And_Membership_Scan(t *testing.T) {
	req := require.New(t)
	store := newStore(t)
	room := domain.NewChat("room-1", "room", "alice", []domain.UserID{"bob"})
	other := domain.NewChat("room-2", "other", "clara", nil)

	req.NoError(store.CreateOrReplaceChat(room))
	req.NoError(store.CreateOrReplaceChat(other))

	fetched, err := store.GetChat("room-1")
	req.NoError(err)
	req.Equal(room, fetched)

	// When the chat is replaced with a new member
	joined, added := fetched.WithMember("clara")
	req.True(added)
	req.NoError(store.CreateOrReplaceChat(joined))

	// Then clara sees both chats and bob only the first one
	chats, err := store.GetChatsForUser("clara")
	req.NoError(err)
	req.Len(chats, 2)

	chats, err = store.GetChatsForUser("bob")
	req.NoError(err)
	req.Len(chats, 1)
	req.Equal(domain.ChatID("room-1"), chats[0].ID)

	chats, err = store.GetChatsForUser("nobody")
	req.NoError(err)
	req.Empty(chats)
}

func TestStore_GetChat_NotFound(t *testing.T) {
	req := require.New(t)
	store := newStore(t)

	_, err := store.GetChat("missing")
	req.ErrorIs(err, errors.ErrChatNotFound)
}

func TestStore_Messages_Keep_Insertion_Order_When_Timestamps_Tie(t *testing.T) {
	req := require.New(t)
	store := newStore(t)
	at := time.Now().UTC()
	messages := []domain.Message{
		{ID: uuid.New(), ChatID: "room", SenderID: "alice", Content: "first", CreatedAt: at},
		{ID: uuid.New(), ChatID: "room", SenderID: "bob", Content: "second", CreatedAt: at},
		{ID: uuid.New(), ChatID: "room", SenderID: "clara", Content: "third", CreatedAt: at},
	}
	for _, m := range messages {
		req.NoError(store.AppendMessage(m))
	}

	fetched, err := store.GetMessages("room")
	req.NoError(err)
	req.Equal(messages, fetched)
}

func TestStore_GetMessages_Empty_Log(t *testing.T) {
	req := require.New(t)
	store := newStore(t)

	fetched, err := store.GetMessages("room")
	req.NoError(err)
	req.NotNil(fetched)
	req.Empty(fetched)
}

func TestStore_GetMessages_Does_Not_Leak_Across_Prefixes(t *testing.T) {
	req := require.New(t)
	store := newStore(t)
	req.NoError(store.AppendMessage(domain.Message{ID: uuid.New(), ChatID: "a", Content: "in a"}))
	req.NoError(store.AppendMessage(domain.Message{ID: uuid.New(), ChatID: "a:b", Content: "in a:b"}))

	fetched, err := store.GetMessages("a")
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("in a", fetched[0].Content)
}

func TestStore_Messages_Concurrent_Appenders_Keep_Per_Sender_Order(t *testing.T) {
	req := require.New(t)
	store := newStore(t)
	const senders = 8
	const perSender = 25

	var wg sync.WaitGroup
	for s := 0; s < senders; s++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				err := store.AppendMessage(domain.Message{
					ID:        uuid.New(),
					ChatID:    "room",
					SenderID:  domain.UserID(fmt.Sprintf("sender-%d", s)),
					Content:   fmt.Sprintf("%d", i),
					CreatedAt: time.Now().UTC(),
				})
				assert.NoError(t, err)
			}
		}(s)
	}
	wg.Wait()

	fetched, err := store.GetMessages("room")
	req.NoError(err)
	req.Len(fetched, senders*perSender)

	// Then every sender's messages appear in the order they were appended
	next := make(map[domain.UserID]int)
	for _, m := range fetched {
		req.Equal(fmt.Sprintf("%d", next[m.SenderID]), m.Content)
		next[m.SenderID]++
	}
}

func TestStore_Scan_Visits_Prefix_In_Key_Order(t *testing.T) {
	req := require.New(t)
	store := newStore(t)
	req.NoError(store.CreateOrReplaceChat(domain.NewChat("b", "second", "alice", nil)))
	req.NoError(store.CreateOrReplaceChat(domain.NewChat("a", "first", "alice", nil)))
	req.NoError(store.AddUser(domain.User{ID: "alice", Username: "alice"}))

	var keys []string
	err := store.Scan(chatPrefix, func(key string, _ []byte) error {
		keys = append(keys, key)
		return nil
	})
	req.NoError(err)
	req.Equal([]string{"chat:a", "chat:b"}, keys)

	// An error from the visitor stops the scan
	stop := fmt.Errorf("stop")
	visited := 0
	err = store.Scan(chatPrefix, func(string, []byte) error {
		visited++
		return stop
	})
	req.ErrorIs(err, stop)
	req.Equal(1, visited)
}
