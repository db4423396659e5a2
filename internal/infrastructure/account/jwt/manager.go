// Package jwt issues and verifies HS256 bearer tokens.
package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/riskibarqy/futboss/internal/usecase"
)

const minSecretLength = 16

type claims struct {
	Kind string `json:"kind"`
	jwtlib.RegisteredClaims
}

type Manager struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewManager(secret, issuer string) (*Manager, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", minSecretLength)
	}
	return &Manager{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}, nil
}

func (m *Manager) Issue(c usecase.TokenClaims) (string, error) {
	if c.ID == "" {
		return "", fmt.Errorf("token id is required")
	}
	if c.Kind == usecase.TokenKindRegistered && c.Subject == "" {
		return "", fmt.Errorf("registered token requires a subject")
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims{
		Kind: string(c.Kind),
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        c.ID,
			Subject:   c.Subject,
			Issuer:    m.issuer,
			IssuedAt:  jwtlib.NewNumericDate(c.IssuedAt),
			ExpiresAt: jwtlib.NewNumericDate(c.ExpiresAt),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (m *Manager) Parse(raw string) (usecase.TokenClaims, error) {
	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(m.issuer))
	}

	parsed := &claims{}
	_, err := jwtlib.ParseWithClaims(raw, parsed, func(*jwtlib.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return usecase.TokenClaims{}, fmt.Errorf("%w: %v", usecase.ErrTokenExpired, err)
		}
		return usecase.TokenClaims{}, fmt.Errorf("%w: %v", usecase.ErrTokenInvalid, err)
	}

	kind := usecase.TokenKind(parsed.Kind)
	switch kind {
	case usecase.TokenKindRegistered:
		if parsed.Subject == "" {
			return usecase.TokenClaims{}, fmt.Errorf("%w: missing subject", usecase.ErrTokenInvalid)
		}
	case usecase.TokenKindGuest:
	default:
		return usecase.TokenClaims{}, fmt.Errorf("%w: unknown token kind %q", usecase.ErrTokenInvalid, parsed.Kind)
	}

	out := usecase.TokenClaims{
		ID:      parsed.ID,
		Kind:    kind,
		Subject: parsed.Subject,
	}
	if parsed.IssuedAt != nil {
		out.IssuedAt = parsed.IssuedAt.Time
	}
	if parsed.ExpiresAt != nil {
		out.ExpiresAt = parsed.ExpiresAt.Time
	}
	return out, nil
}
