package models

import (
	"fmt"
	"time"
)

// Session is a cookie-backed login session.
//
// The token is the opaque value stored in the session cookie; the CSRF token
// is embedded in the page environment for the client to echo back.
type Session struct {
	base

	token     string
	csrfToken string
	userID    string
	expiresAt time.Time
}

// NewSession creates a session for the given user, expiring after ttl.
func NewSession(sequence int, token, csrfToken, userID string, ttl time.Duration) *Session {
	return &Session{
		base:      newBase(sequence),
		token:     token,
		csrfToken: csrfToken,
		userID:    userID,
		expiresAt: time.Now().Add(ttl),
	}
}

func (s *Session) Token() string            { return s.token }
func (s *Session) CSRFToken() string        { return s.csrfToken }
func (s *Session) UserID() string           { return s.userID }
func (s *Session) ExpiresAt() time.Time     { return s.expiresAt }
func (s *Session) SetExpiresAt(t time.Time) { s.expiresAt = t }

// IsExpired reports whether the session has passed its expiry.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.expiresAt)
}

// Validate checks that the session has a token and a user.
func (s *Session) Validate() error {
	if s.token == "" || s.csrfToken == "" {
		return fmt.Errorf("session tokens are required")
	}
	if s.userID == "" {
		return fmt.Errorf("session user is required")
	}
	return nil
}
