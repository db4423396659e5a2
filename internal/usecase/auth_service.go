package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/futboss/internal/domain/user"
	idgen "github.com/riskibarqy/futboss/internal/platform/id"
	"github.com/riskibarqy/futboss/internal/platform/logging"
	"github.com/riskibarqy/futboss/internal/platform/ttlstore"
	"github.com/riskibarqy/futboss/internal/platform/validation"
)

const revokedTokenKeyPrefix = "auth:revoked:"

type AuthConfig struct {
	RegisteredTTL time.Duration
	GuestTTL      time.Duration
}

func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		RegisteredTTL: 7 * 24 * time.Hour,
		GuestTTL:      24 * time.Hour,
	}
}

type RegisterInput struct {
	Email    string
	Username string
	Password string
}

type LoginInput struct {
	EmailOrUsername string
	Password        string
}

type UpdateProfileInput struct {
	Email    *string
	Username *string
}

// AuthResult is returned by every flow that issues a token.
type AuthResult struct {
	User        user.Profile
	Preferences *user.Preferences
	Token       string
	ExpiresIn   string
	ExpiresAt   time.Time
}

type VerifyResult struct {
	User        user.Profile
	Preferences *user.Preferences
}

type AuthService struct {
	users    user.Repository
	hasher   PasswordHasher
	tokens   TokenManager
	denylist ttlstore.Marker
	idGen    idgen.Generator
	validate *validator.Validate
	cfg      AuthConfig
	logger   *logging.Logger
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService builds the auth flows. A nil denylist makes logout a no-op:
// tokens then stay valid until they expire.
func NewAuthService(
	users user.Repository,
	hasher PasswordHasher,
	tokens TokenManager,
	denylist ttlstore.Marker,
	idGen idgen.Generator,
	cfg AuthConfig,
	logger *logging.Logger,
) *AuthService {
	if logger == nil {
		logger = logging.Default()
	}
	defaults := DefaultAuthConfig()
	if cfg.RegisteredTTL <= 0 {
		cfg.RegisteredTTL = defaults.RegisteredTTL
	}
	if cfg.GuestTTL <= 0 {
		cfg.GuestTTL = defaults.GuestTTL
	}

	return &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		denylist: denylist,
		idGen:    idGen,
		validate: validation.Default(),
		cfg:      cfg,
		logger:   logger.Component("auth_service"),
		now:      time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AuthService.Register")
	defer span.End()

	email := user.NormalizeEmail(input.Email)
	username := strings.TrimSpace(input.Username)
	if err := s.validateCredentials(email, username, input.Password); err != nil {
		return AuthResult{}, err
	}

	emailTaken, usernameTaken, err := s.users.FindTaken(ctx, email, username, "")
	if err != nil {
		return AuthResult{}, fmt.Errorf("check existing user: %w", err)
	}
	if err := conflictForTaken(emailTaken, usernameTaken); err != nil {
		return AuthResult{}, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}
	userID, err := s.idGen.NewID()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate user id: %w", err)
	}

	now := s.now().UTC()
	account := user.User{
		ID:           userID,
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	prefs := user.DefaultPreferences(userID, now)
	if err := s.users.Create(ctx, account, prefs); err != nil {
		if conflict := conflictForTaken(errors.Is(err, user.ErrEmailTaken), errors.Is(err, user.ErrUsernameTaken)); conflict != nil {
			return AuthResult{}, conflict
		}
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}

	result, err := s.issue(TokenKindRegistered, userID, s.cfg.RegisteredTTL)
	if err != nil {
		return AuthResult{}, err
	}
	result.User = account.Profile()

	s.logger.InfoContext(ctx, "user registered", "user_id", userID)
	return result, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AuthService.Login")
	defer span.End()

	login := strings.TrimSpace(input.EmailOrUsername)
	if login == "" || input.Password == "" {
		return AuthResult{}, validationError("email/username and password are required")
	}

	account, exists, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		return AuthResult{}, fmt.Errorf("get user by login: %w", err)
	}
	if !exists {
		// Keep the response time close to a real comparison.
		_ = s.hasher.Compare(s.dummyPasswordHash(), input.Password)
		return AuthResult{}, invalidCredentials()
	}
	if err := s.hasher.Compare(account.PasswordHash, input.Password); err != nil {
		return AuthResult{}, invalidCredentials()
	}

	now := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, account.ID, now); err != nil {
		return AuthResult{}, fmt.Errorf("update last login: %w", err)
	}
	account.LastLoginAt = &now

	prefs, found, err := s.users.GetPreferences(ctx, account.ID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("get preferences: %w", err)
	}

	result, err := s.issue(TokenKindRegistered, account.ID, s.cfg.RegisteredTTL)
	if err != nil {
		return AuthResult{}, err
	}
	result.User = account.Profile()
	if found {
		result.Preferences = &prefs
	}
	return result, nil
}

func (s *AuthService) LoginAsGuest(ctx context.Context) (AuthResult, error) {
	_, span := startUsecaseSpan(ctx, "usecase.AuthService.LoginAsGuest")
	defer span.End()

	result, err := s.issue(TokenKindGuest, "", s.cfg.GuestTTL)
	if err != nil {
		return AuthResult{}, err
	}
	result.User = user.GuestProfile()
	return result, nil
}

// Authenticate resolves a bearer token into a session. Registered sessions
// are re-read from the store so deleted users lose access immediately.
func (s *AuthService) Authenticate(ctx context.Context, token string) (user.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, NewCodedError(ErrUnauthorized, CodeMissingToken, "access token required")
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, NewCodedError(ErrUnauthorized, CodeExpiredToken, "token expired").WithCause(err)
		}
		return nil, NewCodedError(ErrUnauthorized, CodeInvalidToken, "invalid token").WithCause(err)
	}

	if s.denylist != nil && claims.ID != "" {
		revoked, err := s.denylist.Marked(ctx, revokedTokenKeyPrefix+claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check token denylist: %w", err)
		}
		if revoked {
			return nil, NewCodedError(ErrUnauthorized, CodeInvalidToken, "token revoked")
		}
	}

	switch claims.Kind {
	case TokenKindGuest:
		return user.NewGuestSession(claims.ID, claims.ExpiresAt), nil
	case TokenKindRegistered:
		account, exists, err := s.users.GetByID(ctx, claims.Subject)
		if err != nil {
			return nil, fmt.Errorf("get session user: %w", err)
		}
		if !exists {
			return nil, NewCodedError(ErrUnauthorized, CodeUserNotFound, "user not found")
		}
		return user.NewRegisteredSession(account, claims.ID, claims.ExpiresAt), nil
	default:
		return nil, NewCodedError(ErrUnauthorized, CodeInvalidToken, "invalid token")
	}
}

// RequireRegistered rejects absent and guest sessions.
func (s *AuthService) RequireRegistered(session user.Session) (user.RegisteredSession, error) {
	return requireRegistered(session)
}

func (s *AuthService) Verify(ctx context.Context, session user.Session) (VerifyResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AuthService.Verify")
	defer span.End()

	switch sess := session.(type) {
	case user.GuestSession:
		return VerifyResult{User: user.GuestProfile()}, nil
	case user.RegisteredSession:
		prefs, found, err := s.users.GetPreferences(ctx, sess.UserID)
		if err != nil {
			return VerifyResult{}, fmt.Errorf("get preferences: %w", err)
		}
		out := VerifyResult{User: sess.User.Profile()}
		if found {
			out.Preferences = &prefs
		}
		return out, nil
	default:
		return VerifyResult{}, NewCodedError(ErrUnauthorized, CodeAuthRequired, "authentication required")
	}
}

// AuthStatus describes an optionally authenticated request.
type AuthStatus struct {
	Authenticated bool
	IsGuest       bool
	User          *user.Profile
}

// Status never fails; a nil session reports an anonymous caller.
func (s *AuthService) Status(session user.Session) AuthStatus {
	switch sess := session.(type) {
	case user.GuestSession:
		profile := user.GuestProfile()
		return AuthStatus{Authenticated: true, IsGuest: true, User: &profile}
	case user.RegisteredSession:
		profile := sess.User.Profile()
		return AuthStatus{Authenticated: true, User: &profile}
	default:
		return AuthStatus{}
	}
}

// Logout always succeeds for the caller. With a denylist configured the
// token id is rejected until the token would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, session user.Session) error {
	if s.denylist == nil || session == nil || session.TokenID() == "" {
		return nil
	}

	ttl := session.ExpiresAt().Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.denylist.Mark(ctx, revokedTokenKeyPrefix+session.TokenID(), ttl); err != nil {
		s.logger.WarnContext(ctx, "revoke token failed", "error", err)
		return nil
	}
	return nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, session user.Session, input UpdateProfileInput) (user.Profile, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AuthService.UpdateProfile")
	defer span.End()

	sess, err := requireRegistered(session)
	if err != nil {
		return user.Profile{}, err
	}
	if input.Email == nil && input.Username == nil {
		return user.Profile{}, validationError("email or username is required")
	}

	change := user.ProfileChange{}
	var email, username string
	if input.Email != nil {
		email = user.NormalizeEmail(*input.Email)
		if err := s.validate.Var(email, "required,email,max=255"); err != nil {
			return user.Profile{}, validationError("invalid email").WithDetails(fieldDetails(err))
		}
		change.Email = &email
	}
	if input.Username != nil {
		username = strings.TrimSpace(*input.Username)
		if err := s.validate.Var(username, "required,min=3,max=20,username"); err != nil {
			return user.Profile{}, validationError("invalid username").WithDetails(fieldDetails(err))
		}
		change.Username = &username
	}

	emailTaken, usernameTaken, err := s.users.FindTaken(ctx, email, username, sess.UserID)
	if err != nil {
		return user.Profile{}, fmt.Errorf("check existing user: %w", err)
	}
	if err := conflictForTaken(emailTaken, usernameTaken); err != nil {
		return user.Profile{}, err
	}

	updated, err := s.users.UpdateProfile(ctx, sess.UserID, change, s.now().UTC())
	if err != nil {
		if conflict := conflictForTaken(errors.Is(err, user.ErrEmailTaken), errors.Is(err, user.ErrUsernameTaken)); conflict != nil {
			return user.Profile{}, conflict
		}
		if errors.Is(err, user.ErrNotFound) {
			return user.Profile{}, notFound(CodeUserNotFound, "user not found")
		}
		return user.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	return updated.Profile(), nil
}

func (s *AuthService) validateCredentials(email, username, password string) error {
	checks := []struct {
		field string
		value string
		rule  string
	}{
		{field: "email", value: email, rule: "required,email,max=255"},
		{field: "username", value: username, rule: "required,min=3,max=20,username"},
		{field: "password", value: password, rule: "required,min=6,strongpassword"},
	}

	fields := make([]validation.FieldError, 0)
	for _, check := range checks {
		if err := s.validate.Var(check.value, check.rule); err != nil {
			for _, fe := range validation.FieldErrors(err) {
				fe.Field = check.field
				fields = append(fields, fe)
			}
		}
	}
	if len(fields) > 0 {
		return validationError("invalid registration data").WithDetails(map[string]any{"fields": fields})
	}
	return nil
}

func (s *AuthService) issue(kind TokenKind, subject string, ttl time.Duration) (AuthResult, error) {
	tokenID, err := s.idGen.NewID()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate token id: %w", err)
	}

	now := s.now().UTC()
	claims := TokenClaims{
		ID:        tokenID,
		Kind:      kind,
		Subject:   subject,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	token, err := s.tokens.Issue(claims)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}

	return AuthResult{
		Token:     token,
		ExpiresIn: FormatTTL(ttl),
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

func (s *AuthService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("futboss-timing-equalizer")
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

func requireRegistered(session user.Session) (user.RegisteredSession, error) {
	if session == nil {
		return user.RegisteredSession{}, NewCodedError(ErrForbidden, CodeAuthRequired, "registered account required")
	}
	registered, ok := user.Registered(session)
	if !ok {
		return user.RegisteredSession{}, guestRestricted()
	}
	return registered, nil
}

func invalidCredentials() *CodedError {
	return NewCodedError(ErrUnauthorized, CodeInvalidCredentials, "invalid credentials")
}

func conflictForTaken(emailTaken, usernameTaken bool) error {
	switch {
	case emailTaken:
		return NewCodedError(ErrConflict, CodeUserExists, "email already in use").
			WithDetails(map[string]any{"field": "email"})
	case usernameTaken:
		return NewCodedError(ErrConflict, CodeUserExists, "username already in use").
			WithDetails(map[string]any{"field": "username"})
	default:
		return nil
	}
}

func fieldDetails(err error) map[string]any {
	return map[string]any{"fields": validation.FieldErrors(err)}
}

// FormatTTL renders token lifetimes the way clients expect them: whole days
// from two days up ("7d"), otherwise hours ("24h"), minutes or seconds.
func FormatTTL(ttl time.Duration) string {
	switch {
	case ttl >= 48*time.Hour && ttl%(24*time.Hour) == 0:
		return fmt.Sprintf("%dd", ttl/(24*time.Hour))
	case ttl%time.Hour == 0:
		return fmt.Sprintf("%dh", ttl/time.Hour)
	case ttl%time.Minute == 0:
		return fmt.Sprintf("%dm", ttl/time.Minute)
	default:
		return fmt.Sprintf("%ds", ttl/time.Second)
	}
}
