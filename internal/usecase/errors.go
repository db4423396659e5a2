package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrConflict              = errors.New("conflict")
	ErrBudgetExceeded        = errors.New("budget exceeded")
	ErrRateLimited           = errors.New("rate limited")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// Client-facing error codes.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeUserExists          = "USER_EXISTS"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeMissingToken        = "MISSING_TOKEN"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeExpiredToken        = "EXPIRED_TOKEN"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeAuthRequired        = "AUTH_REQUIRED"
	CodeGuestRestricted     = "GUEST_RESTRICTED"
	CodeTeamNotFound        = "TEAM_NOT_FOUND"
	CodePlayerNotFound      = "PLAYER_NOT_FOUND"
	CodePlayersNotFound     = "PLAYERS_NOT_FOUND"
	CodeClubNotFound        = "CLUB_NOT_FOUND"
	CodePlayerAlreadyInTeam = "PLAYER_ALREADY_IN_TEAM"
	CodePlayerNotInTeam     = "PLAYER_NOT_IN_TEAM"
	CodeBudgetExceeded      = "BUDGET_EXCEEDED"
	CodeInsufficientBudget  = "INSUFFICIENT_BUDGET"
	CodeInvalidPosition     = "INVALID_POSITION"
	CodeInvalidQuery        = "INVALID_QUERY"
	CodeRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
	CodeSyncInProgress      = "SYNC_IN_PROGRESS"
	CodeProductionOnly      = "NOT_ALLOWED_IN_PRODUCTION"
	CodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeUnavailable         = "SERVICE_UNAVAILABLE"
	CodeInternal            = "INTERNAL_ERROR"
)

// CodedError gives a kind sentinel (ErrNotFound, ErrConflict, ...) a stable
// client code, a message and optional details. errors.Is matches both the
// kind and the wrapped cause.
type CodedError struct {
	Kind    error
	Code    string
	Message string
	Details map[string]any
	Cause   error
}

func NewCodedError(kind error, code, message string) *CodedError {
	return &CodedError{Kind: kind, Code: code, Message: message}
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CodedError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	return out
}

func (e *CodedError) WithDetails(details map[string]any) *CodedError {
	e.Details = details
	return e
}

func (e *CodedError) WithCause(err error) *CodedError {
	e.Cause = err
	return e
}

func validationError(message string) *CodedError {
	return NewCodedError(ErrInvalidInput, CodeValidation, message)
}

func notFound(code, message string) *CodedError {
	return NewCodedError(ErrNotFound, code, message)
}

func guestRestricted() *CodedError {
	return NewCodedError(ErrForbidden, CodeGuestRestricted, "guest users cannot perform this action")
}
