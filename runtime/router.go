// Package runtime holds the live side of the server: who is connected,
// and what an inbound event turns into.
// It orchestrates the system without containing transport concerns.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"
	"unicode/utf8"

	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"

	"github.com/google/uuid"
)

var (
	_ contract.IRouter     = (*Router)(nil)
	_ contract.IChatReader = (*Router)(nil)
)

// Router turns inbound events into store mutations and delivery instructions.
// It never talks to a session directly: the caller hands the deliveries to the fan-out.
type Router struct {
	store            contract.IStore
	moderator        contract.IModerator
	locks            *KeyedMutex
	maxContentLength int
	clock            func() time.Time
	log              *slog.Logger
}

// NewRouter builds a router. A nil moderator leaves content untouched.
func NewRouter(store contract.IStore, moderator contract.IModerator, maxContentLength int, log *slog.Logger) *Router {
	return &Router{
		store:            store,
		moderator:        moderator,
		locks:            NewKeyedMutex(defaultStripes),
		maxContentLength: maxContentLength,
		clock:            time.Now,
		log:              log,
	}
}

func (r *Router) Handle(ctx context.Context, sender domain.UserID, evt event.Inbound) ([]event.Delivery, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := event.Validate(evt); err != nil {
		return nil, err
	}
	switch e := evt.(type) {
	case event.CreateChat:
		return r.createChat(sender, e)
	case event.SendMessage:
		return r.sendMessage(sender, e)
	case event.JoinChat:
		return r.joinChat(sender, e)
	default:
		return nil, fmt.Errorf("%w: unsupported event %T", errors.ErrInvalidEvent, evt)
	}
}

// createChat always adds the sender to the members.
func (r *Router) createChat(sender domain.UserID, cmd event.CreateChat) ([]event.Delivery, error) {
	chat := domain.NewChat(domain.ChatID(uuid.NewString()), cmd.Name, sender, cmd.Participants)
	if err := r.store.CreateOrReplaceChat(chat); err != nil {
		return nil, err
	}
	r.log.Debug("Chat created", "chat_id", chat.ID, "creator", sender, "members", len(chat.Participants), "is_group", chat.IsGroup)

	return []event.Delivery{{
		Recipients: chat.MemberList(),
		Event:      event.ChatCreated{Chat: chat},
	}}, nil
}

// sendMessage only requires the chat to exist. The sender does not have to be
// a member; the message goes to the members.
func (r *Router) sendMessage(sender domain.UserID, cmd event.SendMessage) ([]event.Delivery, error) {
	chat, err := r.store.GetChat(cmd.ChatID)
	if err != nil {
		return nil, err
	}
	if r.maxContentLength > 0 && utf8.RuneCountInString(cmd.Content) > r.maxContentLength {
		return nil, fmt.Errorf("%w: content longer than %d characters", errors.ErrInvalidEvent, r.maxContentLength)
	}

	content := cmd.Content
	if r.moderator != nil {
		var words []string
		content, words = r.moderator.Censor(content)
		if len(words) > 0 {
			r.log.Info("Message censored", "chat_id", chat.ID, "sender", sender, "words", len(words))
		}
	}

	message := domain.Message{
		ID:        uuid.New(),
		ChatID:    chat.ID,
		SenderID:  sender,
		Content:   content,
		CreatedAt: r.clock().UTC(),
	}
	if err := r.store.AppendMessage(message); err != nil {
		return nil, err
	}

	return []event.Delivery{{
		Recipients: chat.MemberList(),
		Event:      event.MessageSent{Message: message},
	}}, nil
}

// joinChat serializes the membership read-modify-write per chat id.
// Joining twice is a no-op without delivery.
func (r *Router) joinChat(sender domain.UserID, cmd event.JoinChat) ([]event.Delivery, error) {
	unlock := r.locks.Lock(cmd.ChatID.String())
	defer unlock()

	chat, err := r.store.GetChat(cmd.ChatID)
	if err != nil {
		return nil, err
	}
	joined, added := chat.WithMember(sender)
	if !added {
		return nil, nil
	}
	if err := r.store.CreateOrReplaceChat(joined); err != nil {
		return nil, err
	}
	r.log.Debug("Chat joined", "chat_id", joined.ID, "user_id", sender)

	return []event.Delivery{{
		Recipients: joined.MemberList(),
		Event:      event.ChatJoined{Chat: joined, UserID: sender},
	}}, nil
}

// ChatsFor lists the chats userID belongs to, sorted by name then id.
func (r *Router) ChatsFor(userID domain.UserID) ([]domain.Chat, error) {
	chats, err := r.store.GetChatsForUser(userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(chats, func(i, j int) bool {
		if chats[i].Name != chats[j].Name {
			return chats[i].Name < chats[j].Name
		}
		return chats[i].ID < chats[j].ID
	})
	if chats == nil {
		chats = []domain.Chat{}
	}
	return chats, nil
}

// History returns the ordered log of a chat to one of its members.
func (r *Router) History(userID domain.UserID, chatID domain.ChatID) ([]domain.Message, error) {
	chat, err := r.store.GetChat(chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasMember(userID) {
		return nil, fmt.Errorf("%w: %s in %s", errors.ErrNotMember, userID, chatID)
	}
	return r.store.GetMessages(chatID)
}
