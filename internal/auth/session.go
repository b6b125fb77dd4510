package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// State is the lifecycle position of a Session.
type State int

const (
	// StateAnonymous means no token has been loaded or issued.
	StateAnonymous State = iota
	// StateAuthenticated means a token is held and attached to requests.
	StateAuthenticated
	// StateExpired means the backend rejected the token and it was cleared.
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateExpired:
		return "expired"
	default:
		return "anonymous"
	}
}

// PublicRoutes are applicant-facing routes where a 401 must not end the session.
var PublicRoutes = []string{"/", "/apply", "/applicant"}

// Session is the explicit authentication context shared by the API client and the UI.
// Lifecycle: Load (from providers) -> Begin (after login) -> Expire (on 401) -> Clear (logout).
type Session struct {
	mu       sync.RWMutex
	store    TokenStore
	fallback []TokenProvider
	token    string
	state    State
	route    string
}

// NewSession creates a session persisting to store. fallback providers are only
// consulted by Load when the store holds no token.
func NewSession(store TokenStore, fallback ...TokenProvider) *Session {
	return &Session{
		store:    store,
		fallback: fallback,
		route:    "/",
	}
}

// Load restores a token from the store or the fallback providers.
// Returns ErrNoToken if none is available; the session stays anonymous.
func (s *Session) Load() error {
	providers := make([]TokenProvider, 0, 1+len(s.fallback))
	if s.store != nil {
		providers = append(providers, s.store)
	}
	providers = append(providers, s.fallback...)

	token, err := GetToken(providers...)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.token = token
	s.state = StateAuthenticated
	s.mu.Unlock()
	return nil
}

// Begin starts an authenticated session with a freshly issued token and persists it.
func (s *Session) Begin(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("empty token")
	}
	if s.store != nil {
		if err := s.store.SaveToken(token); err != nil {
			return fmt.Errorf("failed to persist token: %w", err)
		}
	}

	s.mu.Lock()
	s.token = token
	s.state = StateAuthenticated
	s.mu.Unlock()
	return nil
}

// Token returns the current bearer token, or "" when not authenticated.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetRoute records the UI route currently shown.
func (s *Session) SetRoute(route string) {
	s.mu.Lock()
	s.route = route
	s.mu.Unlock()
}

// Route returns the UI route currently shown.
func (s *Session) Route() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.route
}

// OnPublicRoute reports whether the current route is applicant-facing.
func (s *Session) OnPublicRoute() bool {
	return IsPublicRoute(s.Route())
}

// Expire handles a 401 from the backend. On a public route it does nothing and
// returns false. Otherwise it clears the token and moves to StateExpired.
func (s *Session) Expire() (bool, error) {
	if s.OnPublicRoute() {
		return false, nil
	}

	s.mu.Lock()
	s.token = ""
	s.state = StateExpired
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.DeleteToken(); err != nil {
			return true, err
		}
	}
	return true, nil
}

// Clear ends the session (logout) and deletes the persisted token.
func (s *Session) Clear() error {
	s.mu.Lock()
	s.token = ""
	s.state = StateAnonymous
	s.mu.Unlock()

	if s.store != nil {
		return s.store.DeleteToken()
	}
	return nil
}

// IsPublicRoute reports whether route is one of PublicRoutes or nested below one
// of them (other than the root).
func IsPublicRoute(route string) bool {
	for _, r := range PublicRoutes {
		if route == r {
			return true
		}
		if r != "/" && strings.HasPrefix(route, r+"/") {
			return true
		}
	}
	return false
}
