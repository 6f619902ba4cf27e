// Package local implements the identity-provider port in process, for
// development and tests. Accounts live in memory with argon2-hashed passwords;
// auth-state notifications are delivered from a single dispatch goroutine so
// subscribers observe changes in order, one at a time.
package local

import (
	"context"
	"net/mail"
	"sync"

	"github.com/google/uuid"
	"github.com/matthewhartstonge/argon2"
	"github.com/rs/zerolog"

	"github.com/panuwatch/authsession/internal/auth"
	"github.com/panuwatch/authsession/internal/model"
	"github.com/panuwatch/authsession/internal/provider"
)

// GoogleVerifier resolves a Google ID token into an identity.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (*model.Identity, error)
}

const minPasswordLength = 6

type account struct {
	uid          string
	email        string
	passwordHash []byte
	displayName  *string
	photoURL     *string
}

type event struct {
	identity *model.Identity
	// target, when set, restricts delivery to a single subscriber. Used for
	// the initial state delivery on Subscribe.
	target func(*model.Identity)
}

// Provider is an in-process identity provider.
type Provider struct {
	hasher argon2.Config
	minter auth.TokenMinter
	google GoogleVerifier
	logger *zerolog.Logger

	mu       sync.Mutex
	accounts map[string]*account
	current  *model.Identity
	subs     map[int]func(*model.Identity)
	nextSub  int
	closed   bool

	events chan event
	done   chan struct{}
}

// NewProvider creates a Provider and starts its dispatch goroutine. The
// google verifier may be nil, in which case social sign-in is reported as not
// enabled. Close must be called to release the dispatcher.
func NewProvider(minter auth.TokenMinter, google GoogleVerifier, logger *zerolog.Logger) *Provider {
	p := &Provider{
		hasher:   argon2.DefaultConfig(),
		minter:   minter,
		google:   google,
		logger:   logger,
		accounts: make(map[string]*account),
		subs:     make(map[int]func(*model.Identity)),
		events:   make(chan event, 16),
		done:     make(chan struct{}),
	}
	go p.dispatch()
	return p
}

// Close stops notification dispatch. The provider must not be used afterwards.
func (p *Provider) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.events)
	<-p.done
}

func (p *Provider) dispatch() {
	defer close(p.done)
	for ev := range p.events {
		if ev.target != nil {
			ev.target(ev.identity)
			continue
		}
		p.mu.Lock()
		fns := make([]func(*model.Identity), 0, len(p.subs))
		for _, fn := range p.subs {
			fns = append(fns, fn)
		}
		p.mu.Unlock()
		for _, fn := range fns {
			fn(ev.identity)
		}
	}
}

// Subscribe registers fn for auth-state changes. The current state is
// delivered once immediately after registration, then every subsequent change
// in order. The returned function removes the registration.
func (p *Provider) Subscribe(fn func(*model.Identity)) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	current := p.current
	closed := p.closed
	p.mu.Unlock()

	if !closed {
		p.events <- event{identity: current, target: fn}
	}

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// SignUp registers a new account and signs it in.
func (p *Provider) SignUp(_ context.Context, email, password string) (*model.Identity, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, provider.NewError(provider.CodeInvalidEmail, "malformed email address")
	}
	if len(password) < minPasswordLength {
		return nil, provider.NewError(provider.CodeWeakPassword, "password is too weak")
	}

	hash, err := p.hasher.HashEncoded([]byte(password))
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if _, exists := p.accounts[email]; exists {
		p.mu.Unlock()
		return nil, provider.NewError(provider.CodeEmailAlreadyInUse, "email already registered")
	}
	acct := &account{
		uid:          uuid.NewString(),
		email:        email,
		passwordHash: hash,
	}
	p.accounts[email] = acct
	p.mu.Unlock()

	p.logger.Info().Str("uid", acct.uid).Msg("account registered")

	return p.establish(acct.uid, acct.email, acct.displayName, acct.photoURL)
}

// SignIn authenticates an existing account and signs it in.
func (p *Provider) SignIn(_ context.Context, email, password string) (*model.Identity, error) {
	p.mu.Lock()
	acct, exists := p.accounts[email]
	p.mu.Unlock()

	if !exists {
		return nil, provider.NewError(provider.CodeUserNotFound, "no account for email")
	}

	ok, err := argon2.VerifyEncoded([]byte(password), acct.passwordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, provider.NewError(provider.CodeWrongPassword, "password mismatch")
	}

	return p.establish(acct.uid, acct.email, acct.displayName, acct.photoURL)
}

// SignInWithGoogle validates the given ID token and signs in the identity it
// asserts. No local account is required.
func (p *Provider) SignInWithGoogle(ctx context.Context, idToken string) (*model.Identity, error) {
	if p.google == nil {
		return nil, provider.NewError(provider.CodeOperationNotAllowed, "google sign-in is not configured")
	}

	identity, err := p.google.Verify(ctx, idToken)
	if err != nil {
		return nil, provider.NewError(provider.CodeInvalidCredential, err.Error())
	}

	return p.establish(identity.UID, identity.Email, identity.DisplayName, identity.PhotoURL)
}

// SignOut clears the current identity and notifies subscribers.
func (p *Provider) SignOut(_ context.Context) error {
	p.mu.Lock()
	p.current = nil
	closed := p.closed
	p.mu.Unlock()

	if !closed {
		p.events <- event{identity: nil}
	}
	return nil
}

func (p *Provider) establish(uid, email string, displayName, photoURL *string) (*model.Identity, error) {
	token, err := p.minter.MintIdentityToken(uid, email)
	if err != nil {
		return nil, err
	}

	identity := &model.Identity{
		UID:         uid,
		Email:       email,
		DisplayName: displayName,
		PhotoURL:    photoURL,
		Token:       token,
	}

	p.mu.Lock()
	p.current = identity
	closed := p.closed
	p.mu.Unlock()

	if !closed {
		p.events <- event{identity: identity}
	}
	return identity, nil
}
