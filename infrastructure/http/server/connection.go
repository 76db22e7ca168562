package server

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/observability"
	"chat-hub/sink"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// connection drives one websocket through Authenticated, Active and Closed.
// A single goroutine reads, a single goroutine writes.
type connection struct {
	server  *Server
	conn    *websocket.Conn
	userID  domain.UserID
	id      domain.SessionID
	sink    *sink.SessionSink
	limiter *rate.Limiter
	state   atomic.Int32
	once    sync.Once
	log     *slog.Logger
}

func newConnection(s *Server, conn *websocket.Conn, userID domain.UserID, id domain.SessionID) *connection {
	log := s.log.With("user_id", userID, "session_id", id)
	return &connection{
		server:  s,
		conn:    conn,
		userID:  userID,
		id:      id,
		sink:    sink.NewSessionSink(id, userID, s.options.SendBufferSize, log),
		limiter: rate.NewLimiter(s.options.RateLimit, s.options.RateBurst),
		log:     log,
	}
}

func (c *connection) setState(state domain.SessionState) {
	c.state.Store(int32(state))
}

func (c *connection) State() domain.SessionState {
	return domain.SessionState(c.state.Load())
}

// run registers the session and blocks in the read loop until the transport ends.
func (c *connection) run(ctx context.Context) {
	c.server.registry.Register(c.userID, c.id, c.sink)
	c.server.metrics.ActiveSessions.Inc()
	c.setState(domain.StateActive)
	c.log.Info("Session active")
	defer c.close()

	go c.writePump()
	go func() {
		// Server shutdown tears the session down like a peer would
		select {
		case <-ctx.Done():
			c.sink.Close()
		case <-c.sink.Done():
		}
	}()

	c.readLoop(ctx)
}

// close is the Closed state. It runs once whatever ended the session.
func (c *connection) close() {
	c.once.Do(func() {
		c.setState(domain.StateClosed)
		c.server.registry.Deregister(c.userID, c.id)
		c.server.metrics.ActiveSessions.Dec()
		c.sink.Close()
		_ = c.conn.Close()
		c.log.Info("Session closed")
	})
}

func (c *connection) readLoop(ctx context.Context) {
	options := c.server.options
	c.conn.SetReadLimit(options.MaxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(options.PongWait)); err != nil {
		c.log.Warn("Error setting initial read deadline", "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(options.PongWait))
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(options.PongWait))

		if messageType != websocket.TextMessage {
			c.drop(observability.DropNonText, "Discarding non-text frame")
			continue
		}
		if !c.limiter.Allow() {
			c.drop(observability.DropRateLimited, "Rate limit exceeded, discarding frame")
			continue
		}
		evt, err := event.DecodeInbound(data)
		if err != nil {
			c.drop(observability.DropDecode, "Discarding malformed frame", "error", err)
			continue
		}
		c.dispatch(ctx, evt)
	}
}

// dispatch processes one event to completion before the next read.
// Errors are logged and never end the session.
func (c *connection) dispatch(ctx context.Context, evt event.Inbound) {
	start := time.Now()
	kind := string(evt.Kind())
	err := c.server.chats.Dispatch(ctx, c.userID, evt)
	c.server.metrics.EventDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		c.server.metrics.EventsTotal.WithLabelValues(kind, observability.ResultRejected).Inc()
		c.log.Info("Event rejected", "kind", kind, "error", err)
		return
	}
	c.server.metrics.EventsTotal.WithLabelValues(kind, observability.ResultOK).Inc()
}

func (c *connection) drop(reason, message string, args ...any) {
	c.server.metrics.FramesDropped.WithLabelValues(reason).Inc()
	c.log.Debug(message, args...)
}

func (c *connection) handleReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.log.Warn("Frame exceeded maximum size", "max_bytes", c.server.options.MaxMessageSize)
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		c.log.Debug("Peer closed the session", "error", err)
	case websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		c.log.Warn("Unexpected websocket close", "error", err)
	default:
		c.log.Debug("Websocket read ended", "error", err)
	}
}

// writePump is the only writer of the connection.
func (c *connection) writePump() {
	options := c.server.options
	ticker := time.NewTicker(options.PingPeriod)
	defer func() {
		ticker.Stop()
		// Unblocks the read loop, which then runs close
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.sink.Frames():
			_ = c.conn.SetWriteDeadline(time.Now().Add(options.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Debug("Write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(options.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.Debug("Ping failed", "error", err)
				return
			}
		case <-c.sink.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(options.WriteWait))
			return
		}
	}
}
