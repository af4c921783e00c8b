package session

import (
	"sync"

	"github.com/ptyrelay/relay/internal/codec"
)

// Registry is the process-wide sessions map: session id to Session. A
// session is removed only when its cleanup timer fires (exited and
// viewerless for the full TTL) or when explicitly deleted.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Create allocates a fresh session bound to id (generating one via NewID
// if id is empty, e.g. for integrated-mode callers that pre-print a URL
// with a known id) and inserts it into the registry.
func (r *Registry) Create(id string, cols, rows int, c *codec.Codec) (*Session, error) {
	if id == "" {
		generated, err := NewID()
		if err != nil {
			return nil, err
		}
		id = generated
	}

	s := New(id, cols, rows, c, r.expire)

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	return s, nil
}

// Get looks up a session by id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Delete removes a session from the registry immediately, bypassing its
// cleanup timer (used for administrative shutdown).
func (r *Registry) Delete(id string) {
	r.remove(id)
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// expire is the cleanup timer's callback. Timer.Stop (called from
// cancelCleanupLocked when a viewer or runner reconnects) can lose the
// race against an already-firing timer, so this re-checks the session's
// own exited/viewer state before removing it — a session stays
// registered for as long as it has any viewers or has not exited, even if
// its cleanup timer fired in the meantime.
func (r *Registry) expire(id string) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok || !s.ReadyForCleanup() {
		return
	}

	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Count returns the number of sessions currently tracked.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// TotalViewers sums viewer counts across all sessions.
func (r *Registry) TotalViewers() int {
	r.mu.RLock()
	ids := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		ids = append(ids, s)
	}
	r.mu.RUnlock()

	total := 0
	for _, s := range ids {
		total += s.ViewerCount()
	}
	return total
}

// Each calls fn for every session currently in the registry, for
// diagnostics and shutdown sweeps. fn must not call back into the
// registry's own mutating methods.
func (r *Registry) Each(fn func(*Session)) {
	r.mu.RLock()
	snapshot := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		snapshot = append(snapshot, s)
	}
	r.mu.RUnlock()

	for _, s := range snapshot {
		fn(s)
	}
}
