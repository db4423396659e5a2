package usecase

import (
	"errors"
	"time"
)

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

type TokenKind string

const (
	TokenKindRegistered TokenKind = "registered"
	TokenKindGuest      TokenKind = "guest"
)

// TokenClaims are the verified contents of a bearer token. Subject is empty
// for guest tokens.
type TokenClaims struct {
	ID        string
	Kind      TokenKind
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenManager signs and verifies bearer tokens. Parse wraps ErrTokenExpired
// or ErrTokenInvalid on failure.
type TokenManager interface {
	Issue(claims TokenClaims) (string, error)
	Parse(token string) (TokenClaims, error)
}

// PasswordHasher hashes with an adaptive, salted algorithm. Compare returns
// a non-nil error on mismatch.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}
