package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/futboss/internal/domain/user"
	"github.com/riskibarqy/futboss/internal/infrastructure/account/password"
	"github.com/riskibarqy/futboss/internal/infrastructure/repository/memory"
	usermock "github.com/riskibarqy/futboss/internal/mocks/domain/user"
	idgen "github.com/riskibarqy/futboss/internal/platform/id"
	"github.com/riskibarqy/futboss/internal/platform/logging"
	"github.com/riskibarqy/futboss/internal/platform/ttlstore"
	"github.com/riskibarqy/futboss/internal/platform/validation"
)

// fakeTokens hands out opaque tokens backed by an in-process claim table.
type fakeTokens struct {
	mu     sync.Mutex
	seq    int
	claims map[string]TokenClaims
	now    func() time.Time
}

func newFakeTokens(now func() time.Time) *fakeTokens {
	return &fakeTokens{claims: make(map[string]TokenClaims), now: now}
}

func (f *fakeTokens) Issue(claims TokenClaims) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	token := fmt.Sprintf("token-%d", f.seq)
	f.claims[token] = claims
	return token, nil
}

func (f *fakeTokens) Parse(token string) (TokenClaims, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	claims, ok := f.claims[token]
	if !ok {
		return TokenClaims{}, ErrTokenInvalid
	}
	if !claims.ExpiresAt.After(f.now()) {
		return TokenClaims{}, ErrTokenExpired
	}
	return claims, nil
}

type authFixture struct {
	service *AuthService
	users   *memory.UserRepository
	tokens  *fakeTokens
	now     time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	users := memory.NewUserRepository()
	tokens := newFakeTokens(clock)

	service := NewAuthService(
		users,
		password.NewBcryptHasher(4),
		tokens,
		ttlstore.NewMemory(),
		idgen.NewSequence("id"),
		AuthConfig{RegisteredTTL: 7 * 24 * time.Hour, GuestTTL: 24 * time.Hour},
		logging.NewNop(),
	)
	service.now = clock

	return &authFixture{service: service, users: users, tokens: tokens, now: now}
}

func (f *authFixture) register(t *testing.T, email, username string) AuthResult {
	t.Helper()
	result, err := f.service.Register(context.Background(), RegisterInput{
		Email:    email,
		Username: username,
		Password: "Secret123",
	})
	require.NoError(t, err)
	return result
}

func requireCode(t *testing.T, err error, kind error, code string) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, kind)

	var coded *CodedError
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, code, coded.Code)
}

func TestAuthService_Register(t *testing.T) {
	f := newAuthFixture(t)

	result := f.register(t, "  Alice@Example.com ", "alice")
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "7d", result.ExpiresIn)
	assert.Equal(t, f.now.Add(7*24*time.Hour), result.ExpiresAt)
	assert.Equal(t, "alice@example.com", result.User.Email)
	assert.False(t, result.User.IsGuest)

	prefs, found, err := f.users.GetPreferences(context.Background(), result.User.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, user.DefaultPreferredFormation, prefs.PreferredFormation)
	assert.True(t, prefs.Notifications)
}

func TestAuthService_RegisterConflicts(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "alice@example.com", "alice")

	_, err := f.service.Register(context.Background(), RegisterInput{Email: "ALICE@example.com", Username: "other", Password: "Secret123"})
	requireCode(t, err, ErrConflict, CodeUserExists)

	_, err = f.service.Register(context.Background(), RegisterInput{Email: "bob@example.com", Username: "alice", Password: "Secret123"})
	requireCode(t, err, ErrConflict, CodeUserExists)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.Register(context.Background(), RegisterInput{Email: "not-an-email", Username: "a!", Password: "weak"})
	requireCode(t, err, ErrInvalidInput, CodeValidation)

	var coded *CodedError
	require.ErrorAs(t, err, &coded)
	fields, ok := coded.Details["fields"].([]validation.FieldError)
	require.True(t, ok)
	names := make([]string, 0, len(fields))
	for _, fe := range fields {
		names = append(names, fe.Field)
	}
	assert.ElementsMatch(t, []string{"email", "username", "password"}, names)
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture(t)
	registered := f.register(t, "alice@example.com", "alice")
	ctx := context.Background()

	byEmail, err := f.service.Login(ctx, LoginInput{EmailOrUsername: "ALICE@example.com", Password: "Secret123"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, byEmail.User.ID)
	require.NotNil(t, byEmail.User.LastLoginAt)
	assert.Equal(t, f.now, *byEmail.User.LastLoginAt)
	require.NotNil(t, byEmail.Preferences)

	_, err = f.service.Login(ctx, LoginInput{EmailOrUsername: "alice", Password: "Secret123"})
	require.NoError(t, err)

	_, err = f.service.Login(ctx, LoginInput{EmailOrUsername: "alice", Password: "Wrong123"})
	requireCode(t, err, ErrUnauthorized, CodeInvalidCredentials)

	_, err = f.service.Login(ctx, LoginInput{EmailOrUsername: "nobody", Password: "Secret123"})
	requireCode(t, err, ErrUnauthorized, CodeInvalidCredentials)

	_, err = f.service.Login(ctx, LoginInput{EmailOrUsername: " ", Password: ""})
	requireCode(t, err, ErrInvalidInput, CodeValidation)
}

func TestAuthService_GuestSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	guest, err := f.service.LoginAsGuest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "24h", guest.ExpiresIn)
	assert.True(t, guest.User.IsGuest)

	session, err := f.service.Authenticate(ctx, guest.Token)
	require.NoError(t, err)
	assert.True(t, user.IsGuest(session))

	status := f.service.Status(session)
	assert.True(t, status.Authenticated)
	assert.True(t, status.IsGuest)

	verified, err := f.service.Verify(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, "guest", verified.User.ID)

	_, err = f.service.RequireRegistered(session)
	requireCode(t, err, ErrForbidden, CodeGuestRestricted)

	username := "guesty"
	_, err = f.service.UpdateProfile(ctx, session, UpdateProfileInput{Username: &username})
	requireCode(t, err, ErrForbidden, CodeGuestRestricted)
}

func TestAuthService_Authenticate(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	registered := f.register(t, "alice@example.com", "alice")

	session, err := f.service.Authenticate(ctx, registered.Token)
	require.NoError(t, err)
	sess, ok := user.Registered(session)
	require.True(t, ok)
	assert.Equal(t, registered.User.ID, sess.UserID)

	_, err = f.service.Authenticate(ctx, "")
	requireCode(t, err, ErrUnauthorized, CodeMissingToken)

	_, err = f.service.Authenticate(ctx, "garbage")
	requireCode(t, err, ErrUnauthorized, CodeInvalidToken)

	expired, err := f.tokens.Issue(TokenClaims{ID: "old", Kind: TokenKindRegistered, Subject: registered.User.ID, ExpiresAt: f.now.Add(-time.Minute)})
	require.NoError(t, err)
	_, err = f.service.Authenticate(ctx, expired)
	requireCode(t, err, ErrUnauthorized, CodeExpiredToken)

	orphan, err := f.tokens.Issue(TokenClaims{ID: "orphan", Kind: TokenKindRegistered, Subject: "missing-user", ExpiresAt: f.now.Add(time.Hour)})
	require.NoError(t, err)
	_, err = f.service.Authenticate(ctx, orphan)
	requireCode(t, err, ErrUnauthorized, CodeUserNotFound)
}

func TestAuthService_LogoutRevokesToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	registered := f.register(t, "alice@example.com", "alice")

	session, err := f.service.Authenticate(ctx, registered.Token)
	require.NoError(t, err)
	require.NoError(t, f.service.Logout(ctx, session))

	_, err = f.service.Authenticate(ctx, registered.Token)
	requireCode(t, err, ErrUnauthorized, CodeInvalidToken)

	assert.NoError(t, f.service.Logout(ctx, nil))
}

func TestAuthService_LogoutWithoutDenylist(t *testing.T) {
	f := newAuthFixture(t)
	f.service.denylist = nil
	ctx := context.Background()
	registered := f.register(t, "alice@example.com", "alice")

	session, err := f.service.Authenticate(ctx, registered.Token)
	require.NoError(t, err)
	require.NoError(t, f.service.Logout(ctx, session))

	_, err = f.service.Authenticate(ctx, registered.Token)
	require.NoError(t, err, "tokens stay valid until expiry without a denylist")
}

func TestAuthService_StatusAnonymous(t *testing.T) {
	f := newAuthFixture(t)
	status := f.service.Status(nil)
	assert.False(t, status.Authenticated)
	assert.Nil(t, status.User)

	_, err := f.service.Verify(context.Background(), nil)
	requireCode(t, err, ErrUnauthorized, CodeAuthRequired)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice@example.com", "alice")
	f.register(t, "bob@example.com", "bob")

	session, err := f.service.Authenticate(ctx, alice.Token)
	require.NoError(t, err)

	_, err = f.service.UpdateProfile(ctx, session, UpdateProfileInput{})
	requireCode(t, err, ErrInvalidInput, CodeValidation)

	taken := "bob"
	_, err = f.service.UpdateProfile(ctx, session, UpdateProfileInput{Username: &taken})
	requireCode(t, err, ErrConflict, CodeUserExists)

	invalid := "no"
	_, err = f.service.UpdateProfile(ctx, session, UpdateProfileInput{Username: &invalid})
	requireCode(t, err, ErrInvalidInput, CodeValidation)

	email := " Alice.New@Example.com "
	username := "alice_new"
	profile, err := f.service.UpdateProfile(ctx, session, UpdateProfileInput{Email: &email, Username: &username})
	require.NoError(t, err)
	assert.Equal(t, "alice.new@example.com", profile.Email)
	assert.Equal(t, "alice_new", profile.Username)

	same := "alice_new"
	_, err = f.service.UpdateProfile(ctx, session, UpdateProfileInput{Username: &same})
	require.NoError(t, err, "keeping your own username is not a conflict")
}

func TestAuthService_RegisterRepositoryFailureUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	users := usermock.NewRepository(t)
	service := NewAuthService(
		users,
		password.NewBcryptHasher(4),
		newFakeTokens(time.Now),
		nil,
		idgen.NewSequence("id"),
		AuthConfig{},
		logging.NewNop(),
	)

	users.
		On("FindTaken", mock.Anything, "carol@example.com", "carol", "").
		Return(false, false, nil).
		Once()
	users.
		On("Create", mock.Anything, mock.AnythingOfType("user.User"), mock.AnythingOfType("user.Preferences")).
		Return(user.ErrUsernameTaken).
		Once()

	_, err := service.Register(ctx, RegisterInput{Email: "carol@example.com", Username: "carol", Password: "Secret123"})
	requireCode(t, err, ErrConflict, CodeUserExists)
}

func TestAuthService_LoginStoreFailureUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	users := usermock.NewRepository(t)
	service := NewAuthService(users, password.NewBcryptHasher(4), newFakeTokens(time.Now), nil, idgen.NewSequence("id"), AuthConfig{}, logging.NewNop())
	boom := errors.New("connection reset")

	users.
		On("GetByLogin", mock.Anything, "dave").
		Return(user.User{}, false, boom).
		Once()

	_, err := service.Login(ctx, LoginInput{EmailOrUsername: "dave", Password: "Secret123"})
	require.ErrorIs(t, err, boom)

	var coded *CodedError
	assert.False(t, errors.As(err, &coded), "store failures are internal errors")
}

func TestFormatTTL(t *testing.T) {
	tests := map[time.Duration]string{
		7 * 24 * time.Hour: "7d",
		24 * time.Hour:     "24h",
		36 * time.Hour:     "36h",
		90 * time.Minute:   "90m",
		45 * time.Second:   "45s",
	}
	for ttl, want := range tests {
		assert.Equal(t, want, FormatTTL(ttl), ttl.String())
	}
}
