package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")

	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrInvalidUsername    = fmt.Errorf("invalid username")
	ErrInvalidToken       = fmt.Errorf("invalid token")
	ErrTokenExpired       = fmt.Errorf("token expired")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrUserNotFound       = fmt.Errorf("user not found")

	ErrChatNotFound   = fmt.Errorf("chat not found")
	ErrNotMember      = fmt.Errorf("user is not a member of the chat")
	ErrDecode         = fmt.Errorf("malformed event")
	ErrInvalidEvent   = fmt.Errorf("invalid event")
	ErrStoreExhausted = fmt.Errorf("store exhausted")

	ErrSessionClosed = fmt.Errorf("session closed")
	ErrSlowConsumer  = fmt.Errorf("session send buffer full")
)

// Is and As forward to the standard library so callers importing this package
// under its default name keep access to error inspection.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

// Wrap attaches the cause of a failure to one of the sentinels above.
func Wrap(sentinel, cause error) error {
	return fmt.Errorf("%w: %v", sentinel, cause)
}

// HTTPStatus maps a domain error to the status code returned by the HTTP layer.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case Is(err, ErrUserAlreadyExists):
		return http.StatusConflict
	case Is(err, ErrInvalidCredentials),
		Is(err, ErrInvalidToken),
		Is(err, ErrTokenExpired):
		return http.StatusUnauthorized
	case Is(err, ErrInvalidPassword),
		Is(err, ErrInvalidUsername),
		Is(err, ErrInvalidEvent),
		Is(err, ErrDecode):
		return http.StatusBadRequest
	case Is(err, ErrChatNotFound), Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case Is(err, ErrNotMember):
		return http.StatusForbidden
	case Is(err, ErrStoreExhausted):
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}
