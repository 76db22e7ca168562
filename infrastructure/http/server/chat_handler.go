package server

import (
	"net/http"

	"chat-hub/auth"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"

	"github.com/go-chi/chi/v5"
)

func (s *Server) listChats(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		s.writeError(w, r, errors.ErrInvalidToken)
		return
	}
	chats, err := s.chats.ChatsFor(userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

func (s *Server) createChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		s.writeError(w, r, errors.ErrInvalidToken)
		return
	}
	var cmd event.CreateChat
	if err := decodeJSON(w, r, &cmd); err != nil {
		s.writeError(w, r, err)
		return
	}
	chat, err := s.chats.CreateChat(r.Context(), userID, cmd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, chat)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		s.writeError(w, r, errors.ErrInvalidToken)
		return
	}
	messages, err := s.chats.History(userID, domain.ChatID(chi.URLParam(r, "id")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}
