package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/futboss/internal/domain/user"
	qb "github.com/riskibarqy/futboss/internal/platform/querybuilder"
)

const (
	usersEmailConstraint    = "users_email_key"
	usersUsernameConstraint = "users_username_key"
)

type UserRepository struct {
	db *sqlx.DB
}

var userSelectColumns = []string{
	"id",
	"email",
	"username",
	"password_hash",
	"created_at",
	"updated_at",
	"last_login_at",
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u user.User, prefs user.Preferences) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for user create: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	insertUser, userArgs, err := qb.InsertModel("users", userTableModel{
		ID:           u.ID,
		Email:        user.NormalizeEmail(u.Email),
		Username:     strings.TrimSpace(u.Username),
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
		LastLoginAt:  u.LastLoginAt,
	}, "")
	if err != nil {
		return fmt.Errorf("build insert user query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insertUser, userArgs...); err != nil {
		return fmt.Errorf("insert user: %w", mapUserConflict(err))
	}

	insertPrefs, prefArgs, err := qb.InsertModel("user_preferences", preferencesTableModel{
		UserID:             u.ID,
		FavoriteTeam:       prefs.FavoriteTeam,
		PreferredFormation: prefs.PreferredFormation,
		Notifications:      prefs.Notifications,
		UpdatedAt:          prefs.UpdatedAt,
	}, "")
	if err != nil {
		return fmt.Errorf("build insert user preferences query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insertPrefs, prefArgs...); err != nil {
		return fmt.Errorf("insert user preferences: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit user create tx: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (user.User, bool, error) {
	query, args, err := qb.Select(userSelectColumns...).From("users").
		Where(qb.Eq("id", userID)).
		ToSQL()
	if err != nil {
		return user.User{}, false, fmt.Errorf("build select user by id query: %w", err)
	}
	return r.getOne(ctx, query, args)
}

func (r *UserRepository) GetByLogin(ctx context.Context, emailOrUsername string) (user.User, bool, error) {
	login := strings.ToLower(strings.TrimSpace(emailOrUsername))
	query, args, err := qb.Select(userSelectColumns...).From("users").
		Where(qb.Or(
			qb.Expr("lower(email) = ?", login),
			qb.Expr("lower(username) = ?", login),
		)).
		OrderBy("created_at").
		Limit(1).
		ToSQL()
	if err != nil {
		return user.User{}, false, fmt.Errorf("build select user by login query: %w", err)
	}
	return r.getOne(ctx, query, args)
}

func (r *UserRepository) getOne(ctx context.Context, query string, args []any) (user.User, bool, error) {
	var row userTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return user.User{}, false, nil
		}
		return user.User{}, false, fmt.Errorf("get user: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *UserRepository) FindTaken(ctx context.Context, email, username, excludeUserID string) (bool, bool, error) {
	email = user.NormalizeEmail(email)
	username = strings.ToLower(strings.TrimSpace(username))

	const query = `
SELECT
    COALESCE(BOOL_OR($1 <> '' AND lower(email) = $1), FALSE) AS email_taken,
    COALESCE(BOOL_OR($2 <> '' AND lower(username) = $2), FALSE) AS username_taken
FROM users
WHERE id <> $3`

	var row struct {
		EmailTaken    bool `db:"email_taken"`
		UsernameTaken bool `db:"username_taken"`
	}
	if err := r.db.GetContext(ctx, &row, query, email, username, excludeUserID); err != nil {
		return false, false, fmt.Errorf("find taken email/username: %w", err)
	}
	return row.EmailTaken, row.UsernameTaken, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, userID string, change user.ProfileChange, at time.Time) (user.User, error) {
	builder := qb.Update("users").Set("updated_at", at)
	if change.Email != nil {
		builder = builder.Set("email", user.NormalizeEmail(*change.Email))
	}
	if change.Username != nil {
		builder = builder.Set("username", strings.TrimSpace(*change.Username))
	}
	query, args, err := builder.
		Where(qb.Eq("id", userID)).
		Suffix("RETURNING " + strings.Join(userSelectColumns, ", ")).
		ToSQL()
	if err != nil {
		return user.User{}, fmt.Errorf("build update user profile query: %w", err)
	}

	var row userTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return user.User{}, fmt.Errorf("%w: %s", user.ErrNotFound, userID)
		}
		return user.User{}, fmt.Errorf("update user profile: %w", mapUserConflict(err))
	}
	return row.toDomain(), nil
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	query, args, err := qb.Update("users").
		Set("last_login_at", at).
		Where(qb.Eq("id", userID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build touch last login query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: %s", user.ErrNotFound, userID)
	}
	return nil
}

func (r *UserRepository) GetPreferences(ctx context.Context, userID string) (user.Preferences, bool, error) {
	query, args, err := qb.Select("user_id", "favorite_team", "preferred_formation", "notifications", "updated_at").
		From("user_preferences").
		Where(qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return user.Preferences{}, false, fmt.Errorf("build select user preferences query: %w", err)
	}

	var row preferencesTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return user.Preferences{}, false, nil
		}
		return user.Preferences{}, false, fmt.Errorf("get user preferences: %w", err)
	}
	return user.Preferences{
		UserID:             row.UserID,
		FavoriteTeam:       row.FavoriteTeam,
		PreferredFormation: row.PreferredFormation,
		Notifications:      row.Notifications,
		UpdatedAt:          row.UpdatedAt,
	}, true, nil
}

// mapUserConflict turns unique violations on the account indexes into the
// domain conflict errors.
func mapUserConflict(err error) error {
	constraint, ok := uniqueViolation(err)
	if !ok {
		return err
	}
	switch constraint {
	case usersEmailConstraint:
		return user.ErrEmailTaken
	case usersUsernameConstraint:
		return user.ErrUsernameTaken
	default:
		return err
	}
}
