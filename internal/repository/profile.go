package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/panuwatch/authsession/internal/model"
)

// ProfileRepository defines the interface for profile-document operations over
// the fixed "users" collection. Documents are keyed by identity id.
type ProfileRepository interface {
	// Get retrieves the profile for the given identity id. Returns
	// mongo.ErrNoDocuments when no profile exists.
	Get(ctx context.Context, uid string) (*model.Profile, error)

	// CreateIfAbsent writes the profile only when no document with its id
	// exists yet, then returns the stored document. An existing document's
	// fields are never touched, so a concurrent creation cannot clobber a
	// role or profile edit made in between.
	CreateIfAbsent(ctx context.Context, profile *model.Profile) (*model.Profile, error)

	// Update merges the non-nil params into the profile and stamps
	// updated_at only.
	Update(ctx context.Context, uid string, params UpdateProfileParams) (*model.Profile, error)
}

// UpdateProfileParams defines the optional parameters for updating a profile.
// Only the fields that are not nil will be updated.
type UpdateProfileParams struct {
	DisplayName *string
	PhotoURL    *string
	Role        *model.Role
}

const userCollection = "users"

type profileMongoRepository struct {
	db *mongo.Database
}

// NewProfileMongoRepository creates a new MongoDB repository for profile documents.
func NewProfileMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) ProfileRepository {
	collection := db.Collection(userCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create user indexes")
	}

	return &profileMongoRepository{db: db}
}

func (r *profileMongoRepository) Get(ctx context.Context, uid string) (*model.Profile, error) {
	result := r.db.Collection(userCollection).FindOne(ctx, bson.M{"_id": uid})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var profile model.Profile
	if err := result.Decode(&profile); err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *profileMongoRepository) CreateIfAbsent(ctx context.Context, profile *model.Profile) (*model.Profile, error) {
	now := time.Now()

	// $setOnInsert with upsert is a no-op against an existing document.
	update := bson.M{
		"$setOnInsert": bson.M{
			"email":        profile.Email,
			"display_name": profile.DisplayName,
			"photo_url":    profile.PhotoURL,
			"role":         profile.Role,
			"created_at":   now,
			"updated_at":   now,
		},
	}

	_, err := r.db.Collection(userCollection).UpdateOne(
		ctx,
		bson.M{"_id": profile.ID},
		update,
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return nil, err
	}

	return r.Get(ctx, profile.ID)
}

func (r *profileMongoRepository) Update(
	ctx context.Context,
	uid string,
	params UpdateProfileParams,
) (*model.Profile, error) {
	updateMap := bson.M{}
	if params.DisplayName != nil {
		updateMap["display_name"] = params.DisplayName
	}
	if params.PhotoURL != nil {
		updateMap["photo_url"] = params.PhotoURL
	}
	if params.Role != nil {
		if !params.Role.Valid() {
			return nil, errors.New("unknown role")
		}
		updateMap["role"] = *params.Role
	}

	if len(updateMap) == 0 {
		return nil, errors.New("no profile fields to update")
	}

	updateMap["updated_at"] = time.Now()

	result := r.db.Collection(userCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": uid},
		bson.M{"$set": updateMap},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var profile model.Profile
	if err := result.Decode(&profile); err != nil {
		return nil, err
	}

	return &profile, nil
}
