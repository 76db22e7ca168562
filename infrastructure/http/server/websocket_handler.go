package server

import (
	"net/http"

	"chat-hub/auth"
	"chat-hub/domain"
)

// serveWebSocket is the Connecting state: the token is verified exactly once
// and a failure answers 401 without upgrading the transport.
func (s *Server) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	token := auth.BearerToken(r)
	if token == "" {
		http.Error(w, "authorization token is missing", http.StatusUnauthorized)
		return
	}
	userID, err := s.verifier.Verify(token)
	if err != nil {
		s.log.Info("Websocket rejected", "remote_addr", r.RemoteAddr, "error", err)
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader already answered the client
		s.log.Warn("Websocket upgrade failed", "user_id", userID, "error", err)
		return
	}

	c := newConnection(s, conn, userID, domain.NewSessionID())
	c.setState(domain.StateAuthenticated)
	c.run(r.Context())
}
