package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/futboss/internal/usecase"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestManagerRoundTrip(t *testing.T) {
	m, err := NewManager(testSecret, "futboss")
	require.NoError(t, err)

	now := time.Now().Truncate(time.Second)
	token, err := m.Issue(usecase.TokenClaims{
		ID:        "jti-1",
		Kind:      usecase.TokenKindRegistered,
		Subject:   "user-1",
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	})
	require.NoError(t, err)

	got, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "jti-1", got.ID)
	assert.Equal(t, usecase.TokenKindRegistered, got.Kind)
	assert.Equal(t, "user-1", got.Subject)
	assert.True(t, got.ExpiresAt.Equal(now.Add(time.Hour)))
}

func TestManagerGuestToken(t *testing.T) {
	m, err := NewManager(testSecret, "")
	require.NoError(t, err)

	now := time.Now()
	token, err := m.Issue(usecase.TokenClaims{ID: "g1", Kind: usecase.TokenKindGuest, IssuedAt: now, ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)

	got, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, usecase.TokenKindGuest, got.Kind)
	assert.Empty(t, got.Subject)
}

func TestManagerRejectsExpiredToken(t *testing.T) {
	m, err := NewManager(testSecret, "")
	require.NoError(t, err)

	issued := time.Now().Add(-2 * time.Hour)
	token, err := m.Issue(usecase.TokenClaims{ID: "j", Kind: usecase.TokenKindGuest, IssuedAt: issued, ExpiresAt: issued.Add(time.Hour)})
	require.NoError(t, err)

	_, err = m.Parse(token)
	assert.ErrorIs(t, err, usecase.ErrTokenExpired)
}

func TestManagerRejectsForeignSignature(t *testing.T) {
	issuer, err := NewManager("another-secret-another-secret!!", "")
	require.NoError(t, err)
	verifier, err := NewManager(testSecret, "")
	require.NoError(t, err)

	now := time.Now()
	token, err := issuer.Issue(usecase.TokenClaims{ID: "j", Kind: usecase.TokenKindGuest, IssuedAt: now, ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)

	_, err = verifier.Parse(token)
	assert.ErrorIs(t, err, usecase.ErrTokenInvalid)

	_, err = verifier.Parse("not-a-token")
	assert.ErrorIs(t, err, usecase.ErrTokenInvalid)
}

func TestManagerRejectsNoneAlgorithm(t *testing.T) {
	m, err := NewManager(testSecret, "")
	require.NoError(t, err)

	unsigned := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, claims{
		Kind: string(usecase.TokenKindGuest),
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        "j",
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	raw, err := unsigned.SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Parse(raw)
	assert.ErrorIs(t, err, usecase.ErrTokenInvalid)
}

func TestNewManagerRequiresSecret(t *testing.T) {
	_, err := NewManager("short", "")
	assert.Error(t, err)
}
