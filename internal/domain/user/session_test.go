package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionVariants(t *testing.T) {
	exp := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	var s Session = NewRegisteredSession(User{ID: "u1", Email: "a@b.co"}, "jti-1", exp)
	registered, ok := Registered(s)
	assert.True(t, ok)
	assert.Equal(t, "u1", registered.UserID)
	assert.False(t, IsGuest(s))
	assert.Equal(t, "jti-1", s.TokenID())
	assert.Equal(t, exp, s.ExpiresAt())

	s = NewGuestSession("jti-2", exp)
	_, ok = Registered(s)
	assert.False(t, ok)
	assert.True(t, IsGuest(s))

	_, ok = Registered(nil)
	assert.False(t, ok)
	assert.False(t, IsGuest(nil))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail("  User@Example.COM "))
}

func TestGuestProfile(t *testing.T) {
	p := GuestProfile()
	assert.True(t, p.IsGuest)
	assert.Equal(t, "guest@futboss.app", p.Email)
}
