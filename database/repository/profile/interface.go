// File: database/repository/profile/interface.go
package profileRepo

import (
	"context"

	"expertmeet/database"
	"expertmeet/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// ProfileRepository stores client and provider profiles. Missing records are
// reported as mongo.ErrNoDocuments.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	Upsert(ctx context.Context, profile *models.Profile) error
	UpdateFCMToken(ctx context.Context, id, token string) error
}

var _ ProfileRepository = (*MongoProfileRepo)(nil)

type MongoProfileRepo struct {
	coll *mongo.Collection
}

// NewMongoProfileRepo constructs a new MongoDB ProfileRepository.
func NewMongoProfileRepo() *MongoProfileRepo {
	return &MongoProfileRepo{
		coll: database.DB().Collection("profiles"),
	}
}
