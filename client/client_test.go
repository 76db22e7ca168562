package client_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chat-hub/auth"
	"chat-hub/client"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/infrastructure/http/server"
	"chat-hub/observability"
	"chat-hub/repositories"
	"chat-hub/runtime"
	"chat-hub/runtime/workers"
	"chat-hub/services"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (*httptest.Server, *runtime.Registry) {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelError)
	store, err := repositories.OpenInMemory(log)
	require.NoError(t, err)
	registry := runtime.NewRegistry()
	metrics := observability.NewMetrics()
	router := runtime.NewRouter(store, nil, 1000, log)
	chats := services.NewChatService(router, router, workers.NewEventFanout(log, registry, metrics), log)
	authService := services.NewAuthService(store,
		auth.NewTokenizer("client-test-secret-0123456789", time.Hour),
		auth.PasswordPolicy{MinLength: 1},
		auth.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32},
		log)
	srv := server.NewServer(log, authService, authService, chats, registry, metrics, server.DefaultOptions())

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(func() {
		ts.Close()
		_ = store.Close()
	})
	return ts, registry
}

func TestClient_Conversation(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ts, registry := newServer(t)

	// Given alice and bob have accounts
	alice := client.New(ts.URL, nil)
	bob := client.New(ts.URL, nil)
	_, err := alice.Register(ctx, "alice", "p1")
	req.NoError(err)
	_, err = bob.Register(ctx, "bob", "p2")
	req.NoError(err)
	_, err = alice.Login(ctx, "alice", "p1")
	req.NoError(err)
	bobCreds, err := bob.Login(ctx, "bob", "p2")
	req.NoError(err)

	// And bob listens
	session, err := bob.Dial(ctx)
	req.NoError(err)
	defer session.Close()
	req.Eventually(func() bool { return len(registry.SessionsFor(bobCreds.UserID)) == 1 }, 2*time.Second, 5*time.Millisecond)

	// When alice opens a chat with bob
	chat, err := alice.CreateChat(ctx, "room", bobCreds.UserID)
	req.NoError(err)

	// Then bob is told about it
	evt, err := session.Receive()
	req.NoError(err)
	created, ok := evt.(event.ChatCreated)
	req.True(ok)
	req.Equal(chat.ID, created.Chat.ID)

	// When bob answers over the websocket
	req.NoError(session.Send(event.SendMessage{ChatID: chat.ID, Content: "hey"}))
	evt, err = session.Receive()
	req.NoError(err)
	_, ok = evt.(event.MessageSent)
	req.True(ok)

	// Then alice sees it in the history
	messages, err := alice.History(ctx, chat.ID)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("hey", messages[0].Content)

	chats, err := bob.Chats(ctx)
	req.NoError(err)
	req.Equal([]domain.Chat{chat}, chats)
}

func TestClient_Errors_Carry_Status(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ts, _ := newServer(t)
	c := client.New(ts.URL, nil)

	_, err := c.Login(ctx, "ghost", "nope")
	var statusErr *client.StatusError
	req.ErrorAs(err, &statusErr)
	req.Equal(http.StatusUnauthorized, statusErr.Code)

	_, err = c.Chats(ctx)
	req.ErrorAs(err, &statusErr)
	req.Equal(http.StatusUnauthorized, statusErr.Code)

	_, err = c.WithToken("forged").Dial(ctx)
	req.ErrorAs(err, &statusErr)
	req.Equal(http.StatusUnauthorized, statusErr.Code)
}
