// Package profile reconciles verified identities with their profile document.
package profile

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/panuwatch/authsession/internal/model"
	"github.com/panuwatch/authsession/internal/repository"
)

// Provisioner ensures exactly one profile document exists per identity,
// creating one with defaults the first time an identity is seen.
type Provisioner struct {
	repo   repository.ProfileRepository
	logger *zerolog.Logger
}

// NewProvisioner creates a new Provisioner.
func NewProvisioner(repo repository.ProfileRepository, logger *zerolog.Logger) *Provisioner {
	return &Provisioner{
		repo:   repo,
		logger: logger,
	}
}

// EnsureProfile returns the profile for the identity, creating it if absent.
// Identities without an email (anonymous sign-in) are skipped: no store read
// or write happens and both return values are nil. A repeat call for an
// existing profile performs no write and never alters stored fields.
func (p *Provisioner) EnsureProfile(ctx context.Context, identity *model.Identity) (*model.Profile, error) {
	if identity.Email == "" {
		p.logger.Warn().Str("uid", identity.UID).Msg("identity has no email address, skipping profile creation")
		return nil, nil
	}

	existing, err := p.repo.Get(ctx, identity.UID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	return p.repo.CreateIfAbsent(ctx, &model.Profile{
		ID:          identity.UID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		PhotoURL:    identity.PhotoURL,
		Role:        model.RoleUser,
	})
}
