// Package event defines the events exchanged over a session.
// Every frame is a JSON object with exactly one key naming the event kind.
package event

import (
	"chat-hub/domain"
)

type Kind string

const (
	KindCreateChat  Kind = "CreateChat"
	KindSendMessage Kind = "SendMessage"
	KindJoinChat    Kind = "JoinChat"

	KindChatCreated Kind = "ChatCreated"
	KindMessageSent Kind = "MessageSent"
	KindChatJoined  Kind = "ChatJoined"
)

// Inbound is an event sent by a client.
type Inbound interface {
	Kind() Kind
}

// Outbound is an event pushed by the server to sessions.
type Outbound interface {
	Kind() Kind
}

type CreateChat struct {
	Name         string          `json:"name" validate:"max=128"`
	Participants []domain.UserID `json:"participants" validate:"max=256,dive,required"`
}

func (CreateChat) Kind() Kind { return KindCreateChat }

type SendMessage struct {
	ChatID  domain.ChatID `json:"chat_id" validate:"required"`
	Content string        `json:"content"`
}

func (SendMessage) Kind() Kind { return KindSendMessage }

type JoinChat struct {
	ChatID domain.ChatID `json:"chat_id" validate:"required"`
}

func (JoinChat) Kind() Kind { return KindJoinChat }

type ChatCreated struct {
	Chat domain.Chat
}

func (ChatCreated) Kind() Kind { return KindChatCreated }

type MessageSent struct {
	Message domain.Message
}

func (MessageSent) Kind() Kind { return KindMessageSent }

type ChatJoined struct {
	Chat   domain.Chat   `json:"chat"`
	UserID domain.UserID `json:"user_id"`
}

func (ChatJoined) Kind() Kind { return KindChatJoined }

// Delivery tells the fan-out which identities must receive an event.
type Delivery struct {
	Recipients []domain.UserID
	Event      Outbound
}
