package runtime

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"chat-hub/contract"
	"chat-hub/domain"

	"github.com/stretchr/testify/require"
)

type Sink struct {
	name string
}

func (s *Sink) Consume(_ context.Context, _ []byte) error {
	return nil
}

func TestRegistry_Register_One_Identity_Two_Sessions(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	s1, s2 := &Sink{name: "s1"}, &Sink{name: "s2"}

	// Given no user is connected
	req.Empty(registry.SessionsFor("alice"))
	req.Zero(registry.Count())

	// When alice opens two sessions
	registry.Register("alice", "S1", s1)
	registry.Register("alice", "S2", s2)

	// Then both are live
	req.Equal([]domain.SessionID{"S1", "S2"}, registry.SessionsFor("alice"))
	req.ElementsMatch([]contract.EventSink{s1, s2}, registry.SinksFor("alice"))
	req.Equal(2, registry.Count())

	// When the first one closes
	registry.Deregister("alice", "S1")

	// Then only the second one remains
	req.Equal([]domain.SessionID{"S2"}, registry.SessionsFor("alice"))
	req.Len(registry.SinksFor("alice"), 1)
	req.Same(s2, registry.SinksFor("alice")[0])
}

func TestRegistry_Deregister_Last_Session_Drops_Identity(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.Register("alice", "S1", &Sink{})

	registry.Deregister("alice", "S1")

	req.Empty(registry.SessionsFor("alice"))
	req.Empty(registry.byIdentity)
	req.Empty(registry.sessions)
}

func TestRegistry_Deregister_Unknown_Is_Noop(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.Register("alice", "S1", &Sink{})

	registry.Deregister("bob", "S1")
	registry.Deregister("alice", "S9")
	registry.Deregister("nobody", "nothing")

	req.Equal([]domain.SessionID{"S1"}, registry.SessionsFor("alice"))
}

func TestRegistry_Register_Moves_Session_To_New_Identity(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.Register("alice", "S1", &Sink{})

	registry.Register("bob", "S1", &Sink{})

	req.Empty(registry.SessionsFor("alice"))
	req.Equal([]domain.SessionID{"S1"}, registry.SessionsFor("bob"))
	req.Equal(1, registry.Count())
}

func TestRegistry_SinksFor_Several_Identities(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.Register("alice", "A1", &Sink{})
	registry.Register("alice", "A2", &Sink{})
	registry.Register("bob", "B1", &Sink{})

	req.Len(registry.SinksFor("alice", "bob", "clara"), 3)
	req.Len(registry.SinksFor("alice", "alice"), 2)
	req.Empty(registry.SinksFor("clara"))
}

func TestRegistry_Concurrent_Register_Deregister_Loses_Nothing(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	const users = 16
	const sessionsPerUser = 50

	var wg sync.WaitGroup
	for u := 0; u < users; u++ {
		for s := 0; s < sessionsPerUser; s++ {
			wg.Add(1)
			go func(u, s int) {
				defer wg.Done()
				userID := domain.UserID(fmt.Sprintf("user-%d", u))
				sessionID := domain.SessionID(fmt.Sprintf("user-%d-session-%d", u, s))
				registry.Register(userID, sessionID, &Sink{})
				// Odd sessions leave right away
				if s%2 == 1 {
					registry.Deregister(userID, sessionID)
				}
			}(u, s)
		}
	}
	wg.Wait()

	req.Equal(users*sessionsPerUser/2, registry.Count())
	for u := 0; u < users; u++ {
		req.Len(registry.SessionsFor(domain.UserID(fmt.Sprintf("user-%d", u))), sessionsPerUser/2)
	}
}

func TestRegistry_WaitEmpty(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.Register("alice", "S1", &Sink{})

	// Given a session that stays, waiting gives up with the context
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req.ErrorIs(registry.WaitEmpty(ctx, time.Millisecond), context.DeadlineExceeded)

	// When the session leaves while someone waits
	go func() {
		time.Sleep(10 * time.Millisecond)
		registry.Deregister("alice", "S1")
	}()

	// Then the wait returns as soon as the registry is empty
	req.NoError(registry.WaitEmpty(context.Background(), time.Millisecond))
	req.Zero(registry.Count())
}
