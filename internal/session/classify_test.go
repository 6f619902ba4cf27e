package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/panuwatch/authsession/internal/provider"
)

func TestClassifyKnownCodes(t *testing.T) {
	cases := []struct {
		code     string
		expected string
	}{
		{provider.CodeUserNotFound, "No account found with this email address."},
		{provider.CodeWrongPassword, "Incorrect password. Please try again."},
		{provider.CodeInvalidEmail, "The email address is not valid."},
		{provider.CodeEmailAlreadyInUse, "This email address is already in use."},
		{provider.CodeWeakPassword, "Password should be at least 6 characters."},
		{provider.CodeOperationNotAllowed, "Authentication method not enabled. Please contact support."},
		{provider.CodeTooManyRequests, "Too many failed attempts. Please try again later."},
		{provider.CodeInvalidCredential, "Invalid email or password. Please try again."},
		{provider.CodePopupClosedByUser, "Google sign-in was cancelled."},
		{provider.CodeNetworkRequestFailed, "Network error. Please check your internet connection."},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			got := Classify(provider.NewError(tc.code, "raw provider text"))
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestClassifyUnknownCodeKeepsRawMessage(t *testing.T) {
	got := Classify(provider.NewError("auth/unknown-code", "Unknown issue"))
	assert.Equal(t, "Authentication error: Unknown issue", got)
}

func TestClassifyUncodedError(t *testing.T) {
	got := Classify(errors.New("Network failure"))
	assert.Equal(t, "An unexpected error occurred: Network failure", got)
}

func TestClassifyWrappedProviderError(t *testing.T) {
	wrapped := errors.Join(errors.New("sign in"), provider.NewError(provider.CodeTooManyRequests, "slow down"))
	assert.Equal(t, "Too many failed attempts. Please try again later.", Classify(wrapped))
}
