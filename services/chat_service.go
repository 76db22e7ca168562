package services

import (
	"context"
	"fmt"
	"log/slog"

	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
)

type IChatService interface {
	Dispatch(ctx context.Context, sender domain.UserID, evt event.Inbound) error
	CreateChat(ctx context.Context, creator domain.UserID, cmd event.CreateChat) (domain.Chat, error)
	ChatsFor(userID domain.UserID) ([]domain.Chat, error)
	History(userID domain.UserID, chatID domain.ChatID) ([]domain.Message, error)
}

// ChatService glues the router to the fan-out so every entry point,
// websocket or HTTP, delivers the same way.
type ChatService struct {
	router contract.IRouter
	reader contract.IChatReader
	fanout contract.IFanout
	log    *slog.Logger
}

func NewChatService(router contract.IRouter, reader contract.IChatReader,
	fanout contract.IFanout, log *slog.Logger) *ChatService {
	return &ChatService{router: router, reader: reader, fanout: fanout, log: log}
}

// Dispatch routes one inbound event and hands its deliveries to the fan-out.
// Nothing is delivered when routing fails.
func (s *ChatService) Dispatch(ctx context.Context, sender domain.UserID, evt event.Inbound) error {
	deliveries, err := s.router.Handle(ctx, sender, evt)
	if err != nil {
		return err
	}
	s.fanout.Deliver(ctx, deliveries...)
	return nil
}

// CreateChat is the HTTP twin of the CreateChat event: online members are
// notified the same way and the caller gets the created chat back.
func (s *ChatService) CreateChat(ctx context.Context, creator domain.UserID, cmd event.CreateChat) (domain.Chat, error) {
	deliveries, err := s.router.Handle(ctx, creator, cmd)
	if err != nil {
		return domain.Chat{}, err
	}
	s.fanout.Deliver(ctx, deliveries...)

	for _, delivery := range deliveries {
		if created, ok := delivery.Event.(event.ChatCreated); ok {
			return created.Chat, nil
		}
	}
	return domain.Chat{}, fmt.Errorf("%w: no chat created", errors.ErrInvalidEvent)
}

func (s *ChatService) ChatsFor(userID domain.UserID) ([]domain.Chat, error) {
	return s.reader.ChatsFor(userID)
}

func (s *ChatService) History(userID domain.UserID, chatID domain.ChatID) ([]domain.Message, error) {
	return s.reader.History(userID, chatID)
}
