package server

import (
	"net/http"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// register answers 201 with the public user, 409 when the username is taken.
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var body credentialsRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	user, err := s.authenticator.Register(body.Username, body.Password)
	if err != nil {
		s.log.Debug("Registration refused", "username", body.Username, "error", err)
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// login trades credentials for a token. Every failure is a 401.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body credentialsRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	credentials, err := s.authenticator.Login(body.Username, body.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, credentials)
}
