package user

import (
	"context"
	"time"
)

// ProfileChange is a partial profile update; nil fields are kept.
type ProfileChange struct {
	Email    *string
	Username *string
}

// Repository describes account persistence needs from use cases.
type Repository interface {
	// Create stores the user and its preferences atomically. Unique violations
	// surface as ErrEmailTaken or ErrUsernameTaken.
	Create(ctx context.Context, u User, prefs Preferences) error
	GetByID(ctx context.Context, userID string) (User, bool, error)
	// GetByLogin matches email or username case-insensitively.
	GetByLogin(ctx context.Context, emailOrUsername string) (User, bool, error)
	// FindTaken reports which of email and username belong to a user other
	// than excludeUserID.
	FindTaken(ctx context.Context, email, username, excludeUserID string) (emailTaken, usernameTaken bool, err error)
	UpdateProfile(ctx context.Context, userID string, change ProfileChange, at time.Time) (User, error)
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
	GetPreferences(ctx context.Context, userID string) (Preferences, bool, error)
}
