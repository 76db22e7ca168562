package sink

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"chat-hub/errors"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newSink(bufferSize int) *SessionSink {
	return NewSessionSink("S1", "alice", bufferSize, logs.GetLoggerFromLevel(slog.LevelError))
}

func TestSessionSink_Consume_Keeps_Order(t *testing.T) {
	req := require.New(t)
	s := newSink(3)

	for _, frame := range []string{"one", "two", "three"} {
		req.NoError(s.Consume(context.Background(), []byte(frame)))
	}

	req.Equal("one", string(<-s.Frames()))
	req.Equal("two", string(<-s.Frames()))
	req.Equal("three", string(<-s.Frames()))
}

func TestSessionSink_Full_Buffer_Closes_Session(t *testing.T) {
	req := require.New(t)
	s := newSink(1)

	// Given the buffer is full
	req.NoError(s.Consume(context.Background(), []byte("one")))

	// When one more frame arrives
	err := s.Consume(context.Background(), []byte("two"))

	// Then the sink gives up on the peer
	req.ErrorIs(err, errors.ErrSlowConsumer)
	select {
	case <-s.Done():
	default:
		req.Fail("session should be closed")
	}

	// And later frames are refused
	req.ErrorIs(s.Consume(context.Background(), []byte("three")), errors.ErrSessionClosed)
}

func TestSessionSink_Close_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	s := newSink(1)

	s.Close()
	s.Close()

	req.ErrorIs(s.Consume(context.Background(), []byte("late")), errors.ErrSessionClosed)
}

func TestSessionSink_Cancelled_Context(t *testing.T) {
	req := require.New(t)
	s := newSink(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req.ErrorIs(s.Consume(ctx, []byte("one")), context.Canceled)
	req.Empty(s.Frames())
}

func TestSessionSink_Concurrent_Consume_And_Close(t *testing.T) {
	s := newSink(8)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Consume(context.Background(), []byte("frame"))
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Close()
	}()
	wg.Wait()

	require.ErrorIs(t, s.Consume(context.Background(), []byte("late")), errors.ErrSessionClosed)
}
