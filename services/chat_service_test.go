package services

import (
	"context"
	"log/slog"
	"testing"

	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/mocks"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestChatService_Dispatch(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelError)

	t.Run("should deliver what the router produced", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		router := mocks.NewMockIRouter(ctrl)
		fanout := mocks.NewMockIFanout(ctrl)
		evt := event.JoinChat{ChatID: "room"}
		delivery := event.Delivery{
			Recipients: []domain.UserID{"alice", "bob"},
			Event:      event.ChatJoined{Chat: domain.NewChat("room", "room", "alice", []domain.UserID{"bob"}), UserID: "bob"},
		}

		router.EXPECT().Handle(gomock.Any(), domain.UserID("bob"), evt).Return([]event.Delivery{delivery}, nil)
		fanout.EXPECT().Deliver(gomock.Any(), delivery).Times(1)

		svc := NewChatService(router, mocks.NewMockIChatReader(ctrl), fanout, log)
		req.NoError(svc.Dispatch(context.Background(), "bob", evt))
	})

	t.Run("should deliver nothing when routing fails", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		router := mocks.NewMockIRouter(ctrl)
		fanout := mocks.NewMockIFanout(ctrl)

		router.EXPECT().Handle(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.ErrChatNotFound)
		fanout.EXPECT().Deliver(gomock.Any(), gomock.Any()).Times(0)

		svc := NewChatService(router, mocks.NewMockIChatReader(ctrl), fanout, log)
		err := svc.Dispatch(context.Background(), "bob", event.JoinChat{ChatID: "missing"})
		req.ErrorIs(err, errors.ErrChatNotFound)
	})
}

func TestChatService_CreateChat_Returns_Created_Chat(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	router := mocks.NewMockIRouter(ctrl)
	fanout := mocks.NewMockIFanout(ctrl)
	chat := domain.NewChat("room", "room", "alice", []domain.UserID{"bob"})
	delivery := event.Delivery{Recipients: chat.MemberList(), Event: event.ChatCreated{Chat: chat}}

	router.EXPECT().
		Handle(gomock.Any(), domain.UserID("alice"), gomock.Any()).
		Return([]event.Delivery{delivery}, nil)
	fanout.EXPECT().Deliver(gomock.Any(), delivery)

	svc := NewChatService(router, mocks.NewMockIChatReader(ctrl), fanout, logs.GetLoggerFromLevel(slog.LevelError))
	created, err := svc.CreateChat(context.Background(), "alice", event.CreateChat{Name: "room", Participants: []domain.UserID{"bob"}})

	req.NoError(err)
	req.Equal(chat, created)
}

func TestChatService_Reads_Are_Delegated(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	reader := mocks.NewMockIChatReader(ctrl)
	chats := []domain.Chat{domain.NewChat("room", "room", "alice", nil)}

	reader.EXPECT().ChatsFor(domain.UserID("alice")).Return(chats, nil)
	reader.EXPECT().History(domain.UserID("mallory"), domain.ChatID("room")).Return(nil, errors.ErrNotMember)

	svc := NewChatService(mocks.NewMockIRouter(ctrl), reader, mocks.NewMockIFanout(ctrl), logs.GetLoggerFromLevel(slog.LevelError))

	got, err := svc.ChatsFor("alice")
	req.NoError(err)
	req.Equal(chats, got)

	_, err = svc.History("mallory", "room")
	req.ErrorIs(err, errors.ErrNotMember)
}
