package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Username string `json:"username" validate:"required,min=3,max=20,username"`
	Password string `json:"password" validate:"required,min=6,strongpassword"`
}

func TestValidator_CustomTags(t *testing.T) {
	v := Default()

	require.NoError(t, v.Struct(registerRequest{Email: "a@b.co", Username: "john_doe", Password: "Secret1"}))

	err := v.Struct(registerRequest{Email: "nope", Username: "jo!", Password: "secret"})
	fields := FieldErrors(err)
	require.Len(t, fields, 3)

	byField := map[string]string{}
	for _, f := range fields {
		byField[f.Field] = f.Rule
	}
	assert.Equal(t, "email", byField["email"])
	assert.Equal(t, "username", byField["username"])
	assert.Equal(t, "strongpassword", byField["password"])
}

func TestValidator_TeamName(t *testing.T) {
	v := Default()

	assert.NoError(t, v.Var("Real Madrid-2_B", "teamname"))
	assert.Error(t, v.Var("Team#1", "teamname"))
}

func TestIsStrongPassword(t *testing.T) {
	assert.True(t, IsStrongPassword("Abcde1"))
	assert.False(t, IsStrongPassword("abcdef1"))
	assert.False(t, IsStrongPassword("ABCDEF1"))
	assert.False(t, IsStrongPassword("Abcdefg"))
}

func TestFieldErrors_NonValidationError(t *testing.T) {
	assert.Nil(t, FieldErrors(assert.AnError))
}
