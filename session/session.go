// Package session holds the process-wide authentication state.
//
// The REST collaborator reads the bearer credential from a State and calls
// Invalidate when the server answers 401. Views observe the transition through
// OnInvalidate instead of navigating from inside error handlers.
package session

import (
	"sync"

	"github.com/dailyyoga/dashsync/logger"
	"go.uber.org/zap"
)

// Listener is notified once per valid → invalid transition.
type Listener func(reason string)

// State is the single owner of the session credential.
type State struct {
	log logger.Logger

	mu        sync.RWMutex
	token     string
	valid     bool
	listeners []Listener
}

// New creates a session. An empty token starts an invalid session.
func New(log logger.Logger, token string) *State {
	return &State{
		log:   log,
		token: token,
		valid: token != "",
	}
}

// Token returns the current bearer credential, empty when none is held.
func (s *State) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Valid reports whether a credential is held.
func (s *State) Valid() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.valid
}

// SetToken installs a credential after login and re-validates the session.
func (s *State) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.valid = token != ""
	s.mu.Unlock()
	s.log.Info("session credential updated", zap.Bool("valid", token != ""))
}

// OnInvalidate registers a listener for session invalidation.
func (s *State) OnInvalidate(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Invalidate clears the credential. Listeners run only on the first call after
// the session became valid; repeated 401s from parallel requests collapse into
// one transition. It reports whether this call performed the transition.
func (s *State) Invalidate(reason string) bool {
	s.mu.Lock()
	if !s.valid {
		s.mu.Unlock()
		return false
	}
	s.valid = false
	s.token = ""
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	s.log.Warn("session invalidated", zap.String("reason", reason))
	for _, l := range listeners {
		l(reason)
	}
	return true
}
