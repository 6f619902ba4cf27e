// Package session owns the single source of truth for the current identity
// and its readiness. It subscribes once to the identity provider, drives
// profile provisioning on every identity change, and exposes the resulting
// state to route guards and UI.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/panuwatch/authsession/internal/model"
	"github.com/panuwatch/authsession/internal/provider"
)

// ErrAuthTimeout is returned by WaitForAuth when the initial auth
// determination does not arrive within the caller's timeout. The underlying
// wait is not cancelled: only this call's race is lost.
var ErrAuthTimeout = errors.New("timed out waiting for auth to become ready")

// defaultAuthTimeout applies when WaitForAuth is called with a non-positive timeout.
const defaultAuthTimeout = 10 * time.Second

// ProfileProvisioner ensures a profile document exists for a verified identity.
type ProfileProvisioner interface {
	EnsureProfile(ctx context.Context, identity *model.Identity) (*model.Profile, error)
}

// Session is the authentication session state machine. Construct one per
// application with New and share it; all methods and accessors are safe for
// concurrent use.
type Session struct {
	provider    provider.Provider
	provisioner ProfileProvisioner
	logger      *zerolog.Logger

	mu            sync.Mutex
	identity      *model.Identity
	profile       *model.Profile
	initializing  bool
	actionBusy    bool
	actionErr     string
	profileErr    string
	ready         chan struct{}
	readyResolved bool
	unsubscribe   func()
	observers     []func()
}

// New creates a Session wired to the given provider and provisioner. The
// session stays uninitialized until Initialize is called.
func New(p provider.Provider, provisioner ProfileProvisioner, logger *zerolog.Logger) *Session {
	return &Session{
		provider:     p,
		provisioner:  provisioner,
		logger:       logger,
		initializing: true,
		ready:        make(chan struct{}),
	}
}

// Initialize subscribes to the identity provider. It is idempotent: a second
// call while already initialized is a no-op, so application entry points may
// call it more than once without duplicating provider callbacks.
func (s *Session) Initialize() {
	s.mu.Lock()
	if s.unsubscribe != nil {
		s.mu.Unlock()
		return
	}
	s.initializing = true
	// Reserve the slot before subscribing; the provider may deliver the
	// initial state synchronously.
	s.unsubscribe = func() {}
	s.mu.Unlock()

	unsubscribe := s.provider.Subscribe(s.handleAuthChange)

	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()
}

// Teardown unsubscribes from the provider, discards all session state, and
// re-arms a fresh readiness gate so a later Initialize behaves like a cold start.
func (s *Session) Teardown() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.identity = nil
	s.profile = nil
	s.initializing = true
	s.actionBusy = false
	s.actionErr = ""
	s.profileErr = ""
	s.ready = make(chan struct{})
	s.readyResolved = false
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	s.notifyObservers()
}

// WaitForAuth blocks until the initial auth determination has completed, the
// timeout elapses, or ctx is done. A non-positive timeout means the 10 second
// default. Route guards may treat ErrAuthTimeout as "deny" rather than a hard
// failure.
func (s *Session) WaitForAuth(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = defaultAuthTimeout
	}

	s.mu.Lock()
	ready := s.ready
	s.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ready:
		return nil
	case <-timer.C:
		return ErrAuthTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnChange registers fn to run after every committed state change. Callbacks
// run outside the session lock and must not block for long.
func (s *Session) OnChange(fn func()) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// handleAuthChange is the provider's notification callback. Provisioning
// failures are caught here: they land on the profile-error channel and never
// block the transition to ready.
func (s *Session) handleAuthChange(identity *model.Identity) {
	s.mu.Lock()
	s.identity = identity
	s.mu.Unlock()

	var (
		prof       *model.Profile
		profileErr string
	)
	if identity != nil {
		p, err := s.provisioner.EnsureProfile(context.Background(), identity)
		if err != nil {
			s.logger.Error().Err(err).Str("uid", identity.UID).Msg("failed to ensure profile document")
			profileErr = profileSetupMessage
		} else {
			prof = p
		}
	}

	s.mu.Lock()
	s.profile = prof
	s.profileErr = profileErr
	s.initializing = false
	if !s.readyResolved {
		s.readyResolved = true
		close(s.ready)
	}
	s.mu.Unlock()

	s.notifyObservers()
}

func (s *Session) notifyObservers() {
	s.mu.Lock()
	observers := make([]func(), len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, fn := range observers {
		fn()
	}
}

// Identity returns the current identity, or nil when signed out.
func (s *Session) Identity() *model.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Profile returns the provisioned profile document, or nil.
func (s *Session) Profile() *model.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Initializing reports whether the first identity notification is still pending.
func (s *Session) Initializing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initializing
}

// ActionBusy reports whether an explicit auth action is in flight.
func (s *Session) ActionBusy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actionBusy
}

// Busy reports initializing or action-busy.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initializing || s.actionBusy
}

// Err returns the outcome of the last explicit action, or "".
func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actionErr
}

// ProfileErr returns the outcome of the last automatic profile
// reconciliation, or "". It is a separate channel from Err so a profile
// failure neither masks nor is masked by an action error.
func (s *Session) ProfileErr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profileErr
}

// IsAuthenticated reports whether an identity is present.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity != nil
}

// Email returns the current identity's email, or "".
func (s *Session) Email() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return ""
	}
	return s.identity.Email
}

// UID returns the current identity's id, or "".
func (s *Session) UID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return ""
	}
	return s.identity.UID
}

// CurrentRole returns the loaded profile's role, defaulting to RoleUser when
// no profile is loaded.
func (s *Session) CurrentRole() model.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil || s.profile.Role == "" {
		return model.RoleUser
	}
	return s.profile.Role
}

// HasRole reports whether the current role equals required. With no profile
// loaded, HasRole(RoleUser) is true and any elevated role is false.
func (s *Session) HasRole(required model.Role) bool {
	return s.CurrentRole() == required
}
