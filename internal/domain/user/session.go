package user

import "time"

// Session is the resolved identity of an authenticated request. It is either
// a RegisteredSession or a GuestSession.
type Session interface {
	TokenID() string
	ExpiresAt() time.Time
	isSession()
}

type RegisteredSession struct {
	UserID    string
	User      User
	tokenID   string
	expiresAt time.Time
}

func NewRegisteredSession(u User, tokenID string, expiresAt time.Time) RegisteredSession {
	return RegisteredSession{UserID: u.ID, User: u, tokenID: tokenID, expiresAt: expiresAt}
}

func (s RegisteredSession) TokenID() string      { return s.tokenID }
func (s RegisteredSession) ExpiresAt() time.Time { return s.expiresAt }
func (RegisteredSession) isSession()             {}

type GuestSession struct {
	tokenID   string
	expiresAt time.Time
}

func NewGuestSession(tokenID string, expiresAt time.Time) GuestSession {
	return GuestSession{tokenID: tokenID, expiresAt: expiresAt}
}

func (s GuestSession) TokenID() string      { return s.tokenID }
func (s GuestSession) ExpiresAt() time.Time { return s.expiresAt }
func (GuestSession) isSession()             {}

// Registered reports the registered session behind s, if any.
func Registered(s Session) (RegisteredSession, bool) {
	registered, ok := s.(RegisteredSession)
	return registered, ok
}

// IsGuest reports whether s is a guest session.
func IsGuest(s Session) bool {
	_, ok := s.(GuestSession)
	return ok
}
