package local

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panuwatch/authsession/internal/auth"
	"github.com/panuwatch/authsession/internal/model"
	"github.com/panuwatch/authsession/internal/provider"
)

func newTestProvider(t *testing.T, google GoogleVerifier) (*Provider, auth.TokenMinter) {
	t.Helper()
	logger := zerolog.Nop()
	minter := auth.NewTokenMinter("test-secret", "authsession-test", time.Minute)
	p := NewProvider(minter, google, &logger)
	t.Cleanup(p.Close)
	return p, minter
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var perr *provider.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, code, perr.Code)
}

func TestSignUpAndSignIn(t *testing.T) {
	p, minter := newTestProvider(t, nil)
	ctx := context.Background()

	identity, err := p.SignUp(ctx, "dev@example.com", "s3cret-pw")
	require.NoError(t, err)
	assert.NotEmpty(t, identity.UID)
	assert.Equal(t, "dev@example.com", identity.Email)

	claims, err := minter.VerifyIdentityToken(identity.Token)
	require.NoError(t, err)
	assert.Equal(t, identity.UID, claims.Subject)
	assert.Equal(t, "dev@example.com", claims.Email)

	again, err := p.SignIn(ctx, "dev@example.com", "s3cret-pw")
	require.NoError(t, err)
	assert.Equal(t, identity.UID, again.UID)
}

func TestSignUpRejections(t *testing.T) {
	p, _ := newTestProvider(t, nil)
	ctx := context.Background()

	_, err := p.SignUp(ctx, "not-an-email", "s3cret-pw")
	assertCode(t, err, provider.CodeInvalidEmail)

	_, err = p.SignUp(ctx, "dev@example.com", "short")
	assertCode(t, err, provider.CodeWeakPassword)

	_, err = p.SignUp(ctx, "dev@example.com", "s3cret-pw")
	require.NoError(t, err)
	_, err = p.SignUp(ctx, "dev@example.com", "another-pw")
	assertCode(t, err, provider.CodeEmailAlreadyInUse)
}

func TestSignInRejections(t *testing.T) {
	p, _ := newTestProvider(t, nil)
	ctx := context.Background()

	_, err := p.SignIn(ctx, "nobody@example.com", "whatever")
	assertCode(t, err, provider.CodeUserNotFound)

	_, err = p.SignUp(ctx, "dev@example.com", "s3cret-pw")
	require.NoError(t, err)
	_, err = p.SignIn(ctx, "dev@example.com", "wrong-pw")
	assertCode(t, err, provider.CodeWrongPassword)
}

func TestSubscribeDeliversInOrder(t *testing.T) {
	p, _ := newTestProvider(t, nil)
	ctx := context.Background()

	events := make(chan *model.Identity, 8)
	unsubscribe := p.Subscribe(func(id *model.Identity) {
		events <- id
	})
	defer unsubscribe()

	// Initial delivery: signed out.
	assert.Nil(t, recvEvent(t, events))

	identity, err := p.SignUp(ctx, "dev@example.com", "s3cret-pw")
	require.NoError(t, err)
	got := recvEvent(t, events)
	require.NotNil(t, got)
	assert.Equal(t, identity.UID, got.UID)

	require.NoError(t, p.SignOut(ctx))
	assert.Nil(t, recvEvent(t, events))
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	p, _ := newTestProvider(t, nil)
	ctx := context.Background()

	events := make(chan *model.Identity, 8)
	unsubscribe := p.Subscribe(func(id *model.Identity) {
		events <- id
	})
	recvEvent(t, events)

	unsubscribe()
	_, err := p.SignUp(ctx, "dev@example.com", "s3cret-pw")
	require.NoError(t, err)

	select {
	case id := <-events:
		t.Fatalf("unexpected delivery after unsubscribe: %+v", id)
	case <-time.After(50 * time.Millisecond):
	}
}

type stubVerifier struct {
	identity *model.Identity
	err      error
}

func (s *stubVerifier) Verify(_ context.Context, _ string) (*model.Identity, error) {
	return s.identity, s.err
}

func TestSignInWithGoogle(t *testing.T) {
	ctx := context.Background()

	noGoogle, _ := newTestProvider(t, nil)
	_, err := noGoogle.SignInWithGoogle(ctx, "token")
	assertCode(t, err, provider.CodeOperationNotAllowed)

	name := "G User"
	p, _ := newTestProvider(t, &stubVerifier{identity: &model.Identity{
		UID:         "google-123",
		Email:       "g@example.com",
		DisplayName: &name,
	}})
	identity, err := p.SignInWithGoogle(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "google-123", identity.UID)
	assert.Equal(t, "g@example.com", identity.Email)
	assert.NotEmpty(t, identity.Token)

	bad, _ := newTestProvider(t, &stubVerifier{err: errors.New("audience mismatch")})
	_, err = bad.SignInWithGoogle(ctx, "token")
	assertCode(t, err, provider.CodeInvalidCredential)
}

func recvEvent(t *testing.T, events chan *model.Identity) *model.Identity {
	t.Helper()
	select {
	case id := <-events:
		return id
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for auth-state delivery")
		return nil
	}
}
