package runtime

import (
	"context"
	"sort"
	"sync"
	"time"

	"chat-hub/contract"
	"chat-hub/domain"
)

type Set map[domain.SessionID]struct{}

type session struct {
	owner domain.UserID
	sink  contract.EventSink
}

var _ contract.IRegistry = (*Registry)(nil)

// Registry maps authenticated identities to their live sessions.
// One user may hold several sessions (tabs, devices); a session belongs to one user.
type Registry struct {
	mu         sync.RWMutex
	sessions   map[domain.SessionID]session // map session -> owner and sink
	byIdentity map[domain.UserID]Set        // map user to its sessions
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:   make(map[domain.SessionID]session),
		byIdentity: make(map[domain.UserID]Set),
	}
}

// Register adds a session to the identity's set, creating the set on the fly.
// A session already owned by another identity is moved.
func (r *Registry) Register(userID domain.UserID, sessionID domain.SessionID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if previous, ok := r.sessions[sessionID]; ok && previous.owner != userID {
		r.detach(previous.owner, sessionID)
	}
	r.sessions[sessionID] = session{owner: userID, sink: sink}

	if _, ok := r.byIdentity[userID]; !ok {
		r.byIdentity[userID] = make(Set)
	}
	r.byIdentity[userID][sessionID] = struct{}{}
}

// Deregister removes the session if userID owns it.
// Unknown identities or sessions are ignored.
func (r *Registry) Deregister(userID domain.UserID, sessionID domain.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.sessions[sessionID]
	if !ok || current.owner != userID {
		return
	}
	delete(r.sessions, sessionID)
	r.detach(userID, sessionID)
}

// detach must be called with the write lock held.
// No empty set is left behind to prevent memory leaks over time.
func (r *Registry) detach(userID domain.UserID, sessionID domain.SessionID) {
	members, ok := r.byIdentity[userID]
	if !ok {
		return
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(r.byIdentity, userID)
	}
}

// SessionsFor returns a sorted snapshot of the identity's sessions.
func (r *Registry) SessionsFor(userID domain.UserID) []domain.SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]domain.SessionID, 0, len(r.byIdentity[userID]))
	for id := range r.byIdentity[userID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SinksFor resolves identities into the sinks of every live session they hold.
// The slice is a snapshot: callers use it without holding the lock.
func (r *Registry) SinksFor(userIDs ...domain.UserID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sinks []contract.EventSink
	seen := make(map[domain.UserID]struct{}, len(userIDs))
	for _, userID := range userIDs {
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		for sessionID := range r.byIdentity[userID] {
			sinks = append(sinks, r.sessions[sessionID].sink)
		}
	}
	return sinks
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// WaitEmpty polls until every session has deregistered or ctx is done.
// A session deregisters only after its read loop returned, so an empty
// registry means no event is still being dispatched.
func (r *Registry) WaitEmpty(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for r.Count() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
