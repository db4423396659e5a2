package user

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already in use")
	ErrUsernameTaken = errors.New("username already in use")
)

// User is a registered account. Guests are never persisted.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  *time.Time
}

// NormalizeEmail lower-cases and trims so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

const DefaultPreferredFormation = "4-4-2"

// PreferredFormations are the formations a user can pick as a preference.
var PreferredFormations = map[string]struct{}{
	"4-4-2":   {},
	"4-3-3":   {},
	"3-5-2":   {},
	"4-2-3-1": {},
	"5-3-2":   {},
}

// Preferences are created with the user and updated independently.
type Preferences struct {
	UserID             string
	FavoriteTeam       string
	PreferredFormation string
	Notifications      bool
	UpdatedAt          time.Time
}

func DefaultPreferences(userID string, now time.Time) Preferences {
	return Preferences{
		UserID:             userID,
		PreferredFormation: DefaultPreferredFormation,
		Notifications:      true,
		UpdatedAt:          now,
	}
}

// Profile is the public projection of a user or guest.
type Profile struct {
	ID          string
	Email       string
	Username    string
	IsGuest     bool
	CreatedAt   time.Time
	LastLoginAt *time.Time
}

func (u User) Profile() Profile {
	return Profile{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

// GuestProfile is the synthetic identity shown to guest sessions. Its id is
// display-only and never used as a reference.
func GuestProfile() Profile {
	return Profile{
		ID:       "guest",
		Email:    "guest@futboss.app",
		Username: "Guest",
		IsGuest:  true,
	}
}
