package domain

import "github.com/google/uuid"

// SessionID identifies one live connection of a user.
type SessionID string

func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

// SessionState tracks the protocol lifecycle of a connection.
type SessionState int32

const (
	StateConnecting SessionState = iota
	StateAuthenticated
	StateActive
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
