package session

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/panuwatch/authsession/internal/provider"
	"github.com/panuwatch/authsession/internal/validate"
)

// loginParams carries Login input. Password length is not checked here: weak
// passwords only matter at registration time.
type loginParams struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type registerParams struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// Login authenticates with email and password. On failure the classified
// message lands on the action-error channel and the error is returned to the
// caller. The identity itself arrives asynchronously through the provider
// subscription, which may resolve after this call returns: rely on the
// reactive state, not on Login's return, to observe the signed-in identity.
func (s *Session) Login(ctx context.Context, email, password string) error {
	return s.runAction(ctx, func(ctx context.Context) error {
		if err := validate.Struct(loginParams{Email: email, Password: password}); err != nil {
			return asProviderError(err)
		}
		_, err := s.provider.SignIn(ctx, email, password)
		return err
	})
}

// Register creates a new account with email and password.
func (s *Session) Register(ctx context.Context, email, password string) error {
	return s.runAction(ctx, func(ctx context.Context) error {
		if err := validate.Struct(registerParams{Email: email, Password: password}); err != nil {
			return asProviderError(err)
		}
		_, err := s.provider.SignUp(ctx, email, password)
		return err
	})
}

// LoginWithGoogle authenticates with a Google ID token obtained by the UI.
func (s *Session) LoginWithGoogle(ctx context.Context, idToken string) error {
	return s.runAction(ctx, func(ctx context.Context) error {
		_, err := s.provider.SignInWithGoogle(ctx, idToken)
		return err
	})
}

// Logout signs out the current identity.
func (s *Session) Logout(ctx context.Context) error {
	return s.runAction(ctx, func(ctx context.Context) error {
		return s.provider.SignOut(ctx)
	})
}

// runAction is the shared envelope around every explicit auth action: clear
// the action error, raise the busy flag, run, classify any failure, and drop
// the busy flag whatever the outcome. It never touches the identity or the
// readiness gate. Concurrent actions are not serialized here; that is the
// caller's job (e.g. disabling the submit control while Busy).
func (s *Session) runAction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	s.actionErr = ""
	s.actionBusy = true
	s.mu.Unlock()
	s.notifyObservers()

	err := fn(ctx)

	s.mu.Lock()
	if err != nil {
		s.actionErr = Classify(err)
	}
	s.actionBusy = false
	s.mu.Unlock()
	s.notifyObservers()

	return err
}

// asProviderError maps an input-validation failure onto the provider error
// vocabulary so it flows through the same classification as provider failures.
func asProviderError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	code := provider.CodeInvalidCredential
	switch fieldErrs[0].Tag() {
	case "email":
		code = provider.CodeInvalidEmail
	case "min":
		code = provider.CodeWeakPassword
	}
	return provider.NewError(code, validate.Translate(err))
}
