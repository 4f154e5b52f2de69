package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkordes/belatedly/internal/auth"
	"github.com/pkordes/belatedly/internal/domain"
	"github.com/pkordes/belatedly/internal/remote"
)

// ProfileSource describes the signed-in account.
type ProfileSource interface {
	Profile(ctx context.Context) (remote.Profile, error)
}

// SessionService tracks whether the user is signed in and holds the single
// last-error message. A new failure replaces the message; only a successful
// login or a logout clears it.
type SessionService struct {
	tokens   auth.Provider
	profiles ProfileSource
	timeZone string

	mu        sync.RWMutex
	loggedIn  bool
	lastError string
	profile   remote.Profile
}

// NewSessionService constructs a SessionService. profiles may be nil when
// the provider cannot describe the account. timeZone is the zone reported
// to the client and stamped on remote events.
func NewSessionService(tokens auth.Provider, profiles ProfileSource, timeZone string) *SessionService {
	return &SessionService{tokens: tokens, profiles: profiles, timeZone: timeZone}
}

// Login acquires a token to prove the credentials work, then loads the
// account profile. A profile failure keeps the session signed in and is
// recorded as the last error.
func (s *SessionService) Login(ctx context.Context) error {
	if _, err := s.tokens.AcquireToken(ctx); err != nil {
		s.mu.Lock()
		s.loggedIn = false
		s.lastError = err.Error()
		s.mu.Unlock()
		return fmt.Errorf("service.SessionService.Login: %w", err)
	}
	var (
		profile remote.Profile
		lastErr string
	)
	if s.profiles != nil {
		p, err := s.profiles.Profile(ctx)
		if err != nil {
			lastErr = fmt.Errorf("service.SessionService.Login: profile: %w", err).Error()
		} else {
			profile = p
		}
	}
	s.mu.Lock()
	s.loggedIn = true
	s.lastError = lastErr
	s.profile = profile
	s.mu.Unlock()
	return nil
}

// Logout marks the session signed out and clears the last error.
func (s *SessionService) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loggedIn = false
	s.lastError = ""
	s.profile = remote.Profile{}
}

// Fail records err as the last error. A nil err is ignored.
func (s *SessionService) Fail(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = err.Error()
}

// State returns a snapshot of the session.
func (s *SessionService) State() domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.SessionState{
		LoggedIn:          s.loggedIn,
		LastError:         s.lastError,
		TimeZone:          s.timeZone,
		DisplayName:       s.profile.DisplayName,
		UserPrincipalName: s.profile.UserPrincipalName,
	}
}

// TimeZone returns the zone name events are stamped with.
func (s *SessionService) TimeZone() string {
	return s.timeZone
}
