// Package validation configures the shared request validator and its custom tags.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	teamNamePattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-_]+$`)
)

var (
	once     sync.Once
	instance *validator.Validate
)

// FieldError is one client-facing validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Default returns the process-wide validator with custom tags registered.
func Default() *validator.Validate {
	once.Do(func() {
		instance = New()
	})
	return instance
}

// New builds a validator that reports json field names and knows the
// username, teamname and strongpassword tags.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("teamname", func(fl validator.FieldLevel) bool {
		return teamNamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})
	return v
}

// IsStrongPassword requires a lower-case letter, an upper-case letter and a digit.
func IsStrongPassword(password string) bool {
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}

// FieldErrors flattens validator errors into client-facing entries. Other
// errors produce nil.
func FieldErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "username":
		return "may contain only letters, numbers and underscores"
	case "teamname":
		return "may contain only letters, numbers, spaces, hyphens and underscores"
	case "strongpassword":
		return "must contain a lower-case letter, an upper-case letter and a digit"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "dive", "unique":
		return "must not contain duplicates"
	default:
		return "is invalid"
	}
}
