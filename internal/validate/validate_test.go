package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

func TestStructPasses(t *testing.T) {
	err := Struct(credentials{Email: "a@b.com", Password: "s3cret-pw"})
	require.NoError(t, err)
}

func TestTranslateEmailFailure(t *testing.T) {
	err := Struct(credentials{Email: "not-an-email", Password: "s3cret-pw"})
	require.Error(t, err)
	assert.Equal(t, "Email must be a valid email address", Translate(err))
}

func TestTranslateMinFailure(t *testing.T) {
	err := Struct(credentials{Email: "a@b.com", Password: "abc"})
	require.Error(t, err)
	assert.Equal(t, "Password must be at least 6 characters in length", Translate(err))
}

func TestTranslatePassesThroughOtherErrors(t *testing.T) {
	assert.Equal(t, assert.AnError.Error(), Translate(assert.AnError))
}
