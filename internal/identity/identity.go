// Package identity adapts the hosted identity provider down to the one thing
// the rest of the app consumes: a stable user id and sign-in/sign-out events.
package identity

import "sync"

type Session struct {
	UserID string
	Email  string
}

// Event carries a session change. Session is nil on sign-out.
type Event struct {
	Session *Session
}

type Provider interface {
	// Current returns the active session, or nil when signed out.
	Current() *Session
	// Events streams session changes. The channel stays open for the life of
	// the provider.
	Events() <-chan Event
}

// Static is a config-driven provider: one fixed user, signed in at startup.
// It also backs tests that need to drive the session lifecycle by hand.
type Static struct {
	mu      sync.Mutex
	current *Session
	events  chan Event
}

var _ Provider = (*Static)(nil)

func NewStatic() *Static {
	return &Static{events: make(chan Event, 8)}
}

func (s *Static) Current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Static) Events() <-chan Event {
	return s.events
}

func (s *Static) SignIn(userID string) {
	if userID == "" {
		return
	}
	s.mu.Lock()
	s.current = &Session{UserID: userID}
	session := *s.current
	s.mu.Unlock()
	s.events <- Event{Session: &session}
}

func (s *Static) SignOut() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	s.events <- Event{}
}

func (s *Static) Close() {
	close(s.events)
}
