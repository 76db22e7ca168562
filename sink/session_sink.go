package sink

import (
	"context"
	"log/slog"
	"sync"

	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/errors"
)

var _ contract.EventSink = (*SessionSink)(nil)

// SessionSink buffers the outbound frames of one connection.
// The connection's write pump drains Frames until Done is closed.
type SessionSink struct {
	ID     domain.SessionID
	UserID domain.UserID
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	log    *slog.Logger
}

func NewSessionSink(id domain.SessionID, userID domain.UserID, bufferSize int, log *slog.Logger) *SessionSink {
	return &SessionSink{
		ID:     id,
		UserID: userID,
		send:   make(chan []byte, bufferSize),
		done:   make(chan struct{}),
		log:    log,
	}
}

// Consume enqueues a frame without ever blocking.
// A full buffer means the peer cannot keep up: the sink closes itself and the
// connection is torn down by its own pumps.
func (s *SessionSink) Consume(ctx context.Context, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-s.done:
		return errors.ErrSessionClosed
	default:
	}
	select {
	case s.send <- frame:
		return nil
	case <-s.done:
		return errors.ErrSessionClosed
	default:
		s.log.Warn("Send buffer full, closing slow session", "session_id", s.ID, "user_id", s.UserID)
		s.Close()
		return errors.ErrSlowConsumer
	}
}

// Frames is read by the write pump only.
func (s *SessionSink) Frames() <-chan []byte {
	return s.send
}

func (s *SessionSink) Done() <-chan struct{} {
	return s.done
}

// Close is idempotent. The frame channel is never closed so a concurrent
// Consume cannot panic.
func (s *SessionSink) Close() {
	s.once.Do(func() {
		close(s.done)
	})
}
