//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is the outbound side of one session.
// Consume must never block on a slow peer.
type EventSink interface {
	Consume(ctx context.Context, frame []byte) error
}

// IStore is the process-lifetime store of users, chats and message logs.
// Every operation is atomic for the key it touches.
type IStore interface {
	AddUser(user domain.User) error
	GetUser(id domain.UserID) (domain.User, error)
	GetUserByUsername(username string) (domain.User, error)
	CreateOrReplaceChat(chat domain.Chat) error
	GetChat(id domain.ChatID) (domain.Chat, error)
	GetChatsForUser(id domain.UserID) ([]domain.Chat, error)
	AppendMessage(message domain.Message) error
	GetMessages(id domain.ChatID) ([]domain.Message, error)
}

type IRegistry interface {
	Register(userID domain.UserID, sessionID domain.SessionID, sink EventSink)
	Deregister(userID domain.UserID, sessionID domain.SessionID)
	SessionsFor(userID domain.UserID) []domain.SessionID
	SinksFor(userIDs ...domain.UserID) []EventSink
	Count() int
}

// IRouter turns one inbound event of an authenticated sender into store
// mutations and delivery instructions.
type IRouter interface {
	Handle(ctx context.Context, sender domain.UserID, evt event.Inbound) ([]event.Delivery, error)
}

// IChatReader serves the read paths of the HTTP surface.
type IChatReader interface {
	ChatsFor(userID domain.UserID) ([]domain.Chat, error)
	History(userID domain.UserID, chatID domain.ChatID) ([]domain.Message, error)
}

// IModerator masks forbidden words and reports the ones it found.
type IModerator interface {
	Censor(content string) (string, []string)
}

type IFanout interface {
	Deliver(ctx context.Context, deliveries ...event.Delivery)
}

// Authenticator creates identities and trades credentials for tokens.
type Authenticator interface {
	Register(username, password string) (domain.User, error)
	Login(username, password string) (domain.Credentials, error)
}

// Verifier resolves a token to the identity it was issued for.
type Verifier interface {
	Verify(token string) (domain.UserID, error)
}
