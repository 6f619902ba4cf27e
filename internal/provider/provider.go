// Package provider defines the identity-provider port consumed by the session
// layer. Implementations map provider-specific failures into *Error values
// carrying a code from the closed vocabulary below.
package provider

import (
	"context"

	"github.com/panuwatch/authsession/internal/model"
)

// Provider is the capability surface of an identity provider. Subscribe
// registers a callback that receives every auth-state change, including an
// initial delivery of the current state; notifications arrive in the order the
// identity actually changed, at most one in flight at a time.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*model.Identity, error)
	SignUp(ctx context.Context, email, password string) (*model.Identity, error)
	SignInWithGoogle(ctx context.Context, idToken string) (*model.Identity, error)
	SignOut(ctx context.Context) error
	Subscribe(fn func(*model.Identity)) (unsubscribe func())
}

// Error codes reported by providers for their common failure cases.
const (
	CodeUserNotFound         = "auth/user-not-found"
	CodeWrongPassword        = "auth/wrong-password"
	CodeInvalidCredential    = "auth/invalid-credential"
	CodeInvalidEmail         = "auth/invalid-email"
	CodeEmailAlreadyInUse    = "auth/email-already-in-use"
	CodeWeakPassword         = "auth/weak-password"
	CodeOperationNotAllowed  = "auth/operation-not-allowed"
	CodePopupClosedByUser    = "auth/popup-closed-by-user"
	CodeTooManyRequests      = "auth/too-many-requests"
	CodeNetworkRequestFailed = "auth/network-request-failed"
)

// Error is a provider failure carrying an optional machine-readable code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

// NewError creates a coded provider error.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}
