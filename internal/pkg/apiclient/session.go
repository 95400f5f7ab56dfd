package apiclient

import (
	"sync"
	"time"

	"github.com/yigit/scholarhub/internal/app/models/dto"
)

// Session holds the tokens of one signed-in user. It is safe for concurrent
// use; the zero value is an anonymous session.
type Session struct {
	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
	user         *dto.UserResponse
}

// NewSession returns an anonymous session.
func NewSession() *Session {
	return &Session{}
}

// Set installs a fresh token pair.
func (s *Session) Set(tok dto.TokenResponse, user *dto.UserResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		s.refreshToken = tok.RefreshToken
	}
	s.expiresAt = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	if user != nil {
		s.user = user
	}
}

// Clear forgets every credential.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.refreshToken = ""
	s.expiresAt = time.Time{}
	s.user = nil
}

// AccessToken returns the bearer token, or "" when signed out.
func (s *Session) AccessToken() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the refresh token, or "".
func (s *Session) RefreshToken() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Authenticated reports whether an unexpired access token is held.
func (s *Session) Authenticated() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken != "" && time.Now().Before(s.expiresAt)
}

// User returns the profile captured at login, if any.
func (s *Session) User() *dto.UserResponse {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}
