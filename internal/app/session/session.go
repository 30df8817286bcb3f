// Package session holds ephemeral per-user conversation state: the current
// step plus the values accumulated so far. Sessions never persist; they are
// cleared on completion, cancellation, or any unrecoverable error so a
// stale step can never swallow unrelated input.
package session

import (
	"sync"

	"github.com/qamqor-studio/qamqor/internal/infra/metrics"
)

// Step names the conversation state a user is parked at.
type Step string

const (
	StepNone            Step = ""
	StepDescription     Step = "waiting_for_description"
	StepContact         Step = "waiting_for_contact"
	StepNewDescription  Step = "waiting_for_new_description"
	StepSpecDescription Step = "waiting_for_tz_description"
	StepSpecPayment     Step = "waiting_for_tz_payment"
)

// Session is one user's in-flight conversation. Fields accumulate as steps
// advance and are read out when the final step completes.
type Session struct {
	Step            Step
	TaskID          string
	Description     string
	Contact         string
	SpecDescription string
}

// Active reports whether the session is parked at a step.
func (s Session) Active() bool { return s.Step != StepNone }

// Store maps user ids to sessions. Input from one user arrives
// sequentially, so per-user access needs no ordering beyond the map lock;
// the mutex only guards concurrent access from distinct users.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[int64]Session)}
}

// Get returns the user's session, or an empty one if absent. Never fails.
func (s *Store) Get(userID int64) Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[userID]
}

// Put overwrites the user's session completely.
func (s *Store) Put(userID int64, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.sessions[userID]; !held && sess.Active() {
		metrics.SessionsActive.Inc()
	}
	s.sessions[userID] = sess
}

// Clear drops the user's session.
func (s *Store) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.sessions[userID]; held {
		metrics.SessionsActive.Dec()
	}
	delete(s.sessions, userID)
}
