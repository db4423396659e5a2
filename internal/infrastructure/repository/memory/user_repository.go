package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/futboss/internal/domain/user"
)

type UserRepository struct {
	mu          sync.RWMutex
	users       map[string]user.User
	preferences map[string]user.Preferences
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:       make(map[string]user.User),
		preferences: make(map[string]user.Preferences),
	}
}

func (r *UserRepository) Create(_ context.Context, u user.User, prefs user.Preferences) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.conflictLocked(u.Email, u.Username, ""); err != nil {
		return err
	}
	u.Email = user.NormalizeEmail(u.Email)
	r.users[u.ID] = cloneUser(u)
	prefs.UserID = u.ID
	r.preferences[u.ID] = prefs
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, userID string) (user.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[userID]
	if !ok {
		return user.User{}, false, nil
	}
	return cloneUser(u), true, nil
}

func (r *UserRepository) GetByLogin(_ context.Context, emailOrUsername string) (user.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	login := strings.TrimSpace(emailOrUsername)
	for _, u := range r.users {
		if strings.EqualFold(u.Email, login) || strings.EqualFold(u.Username, login) {
			return cloneUser(u), true, nil
		}
	}
	return user.User{}, false, nil
}

func (r *UserRepository) FindTaken(_ context.Context, email, username, excludeUserID string) (bool, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	emailTaken, usernameTaken := r.takenLocked(email, username, excludeUserID)
	return emailTaken, usernameTaken, nil
}

func (r *UserRepository) UpdateProfile(_ context.Context, userID string, change user.ProfileChange, at time.Time) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return user.User{}, fmt.Errorf("%w: %s", user.ErrNotFound, userID)
	}

	var email, username string
	if change.Email != nil {
		email = *change.Email
	}
	if change.Username != nil {
		username = *change.Username
	}
	if err := r.conflictLocked(email, username, userID); err != nil {
		return user.User{}, err
	}

	if change.Email != nil {
		u.Email = user.NormalizeEmail(email)
	}
	if change.Username != nil {
		u.Username = username
	}
	u.UpdatedAt = at
	r.users[userID] = u
	return cloneUser(u), nil
}

func (r *UserRepository) TouchLastLogin(_ context.Context, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("%w: %s", user.ErrNotFound, userID)
	}
	u.LastLoginAt = &at
	r.users[userID] = u
	return nil
}

func (r *UserRepository) GetPreferences(_ context.Context, userID string) (user.Preferences, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prefs, ok := r.preferences[userID]
	return prefs, ok, nil
}

func (r *UserRepository) takenLocked(email, username, excludeUserID string) (bool, bool) {
	email = user.NormalizeEmail(email)
	username = strings.TrimSpace(username)

	var emailTaken, usernameTaken bool
	for id, u := range r.users {
		if id == excludeUserID {
			continue
		}
		if email != "" && u.Email == email {
			emailTaken = true
		}
		if username != "" && strings.EqualFold(u.Username, username) {
			usernameTaken = true
		}
	}
	return emailTaken, usernameTaken
}

func (r *UserRepository) conflictLocked(email, username, excludeUserID string) error {
	emailTaken, usernameTaken := r.takenLocked(email, username, excludeUserID)
	switch {
	case emailTaken:
		return user.ErrEmailTaken
	case usernameTaken:
		return user.ErrUsernameTaken
	default:
		return nil
	}
}

func cloneUser(u user.User) user.User {
	if u.LastLoginAt != nil {
		at := *u.LastLoginAt
		u.LastLoginAt = &at
	}
	return u
}
