package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/flow"
	"storefront/internal/realtime"
)

// ErrNotFound signals a session id that is unknown or already removed.
var ErrNotFound = errors.New("session not found")

// Session binds one browser session to its screen-flow controller and
// the hub its clients receive events on.
type Session struct {
	ID         string
	Controller *flow.Controller
	Hub        *realtime.Hub
	CreatedAt  time.Time

	stop func()
}

// Stop terminates the session's background work (the hub loop).
func (s *Session) Stop() {
	if s.stop != nil {
		s.stop()
	}
}

// Registry keeps live sessions in memory with concurrency safety.
// Sessions are ephemeral: nothing survives a process restart.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	newID func() string
	now   func() time.Time
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Create registers a new session built by the given constructor. The
// constructor receives the fresh id and hub and returns the controller
// plus a stop function for the session's background work.
func (r *Registry) Create(build func(id string, hub *realtime.Hub) (*flow.Controller, func())) *Session {
	id := r.newID()
	hub := realtime.NewHub()
	controller, stop := build(id, hub)

	s := &Session{
		ID:         id,
		Controller: controller,
		Hub:        hub,
		CreatedAt:  r.now(),
		stop:       stop,
	}

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	return s
}

// Get retrieves the session if present.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove stops and drops the session. An absent id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Stop()
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Each calls fn for every live session.
func (r *Registry) Each(fn func(s *Session)) {
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
