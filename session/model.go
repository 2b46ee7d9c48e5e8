package session

import "time"

// Identity is who is logged in.
type Identity struct {
	Email string
}

// Session pairs an accepted bearer token with the identity it belongs to.
//
// ExpiresAt is zero when the token carries no readable expiry.
type Session struct {
	Token     string
	Identity  Identity
	ExpiresAt time.Time
}

// Clone returns a copy of s, or nil for a nil session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	return &out
}

// Expired reports whether the session's known expiry is at or before now.
// Sessions without an expiry never report expired.
func (s *Session) Expired(now time.Time) bool {
	if s == nil || s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(s.ExpiresAt)
}
