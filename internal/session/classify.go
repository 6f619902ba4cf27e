package session

import (
	"errors"

	"github.com/panuwatch/authsession/internal/provider"
)

// profileSetupMessage is surfaced on the profile-error channel when automatic
// provisioning fails.
const profileSetupMessage = "Failed to set up your profile. Please try refreshing the page."

// messages maps every common provider failure code to its user-facing sentence.
var messages = map[string]string{
	provider.CodeUserNotFound:         "No account found with this email address.",
	provider.CodeWrongPassword:        "Incorrect password. Please try again.",
	provider.CodeInvalidCredential:    "Invalid email or password. Please try again.",
	provider.CodeInvalidEmail:         "The email address is not valid.",
	provider.CodeEmailAlreadyInUse:    "This email address is already in use.",
	provider.CodeWeakPassword:         "Password should be at least 6 characters.",
	provider.CodeOperationNotAllowed:  "Authentication method not enabled. Please contact support.",
	provider.CodePopupClosedByUser:    "Google sign-in was cancelled.",
	provider.CodeTooManyRequests:      "Too many failed attempts. Please try again later.",
	provider.CodeNetworkRequestFailed: "Network error. Please check your internet connection.",
}

// Classify maps a provider failure to a user-displayable message. Coded but
// unmapped failures keep the raw message behind a generic prefix; failures
// with no code at all get the most generic template. Every path yields a
// non-empty displayable string.
func Classify(err error) string {
	var perr *provider.Error
	if errors.As(err, &perr) && perr.Code != "" {
		if msg, ok := messages[perr.Code]; ok {
			return msg
		}
		return "Authentication error: " + perr.Message
	}
	return "An unexpected error occurred: " + err.Error()
}
