package session

import (
	"sync"

	"github.com/google/uuid"
)

type key struct {
	examID uuid.UUID
	userID int
}

// Registry holds the live sessions of this process, keyed by (exam, user).
type Registry struct {
	mu       sync.RWMutex
	sessions map[key]*Session
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[key]*Session)}
}

// Get returns the live session for (examID, userID), or nil.
func (r *Registry) Get(examID uuid.UUID, userID int) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[key{examID, userID}]
}

// Put registers a session, replacing any previous one for the same pair.
func (r *Registry) Put(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[key{s.ExamID(), s.UserID()}] = s
}

// Delete removes the session for (examID, userID) if present.
func (r *Registry) Delete(examID uuid.UUID, userID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, key{examID, userID})
}

// Expired returns every in-progress session whose countdown has run out.
// The deadline worker submits these.
func (r *Registry) Expired() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Session
	for _, s := range r.sessions {
		if s.Expired() {
			out = append(out, s)
		}
	}
	return out
}

// Len reports the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
