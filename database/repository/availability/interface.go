// File: database/repository/availability/interface.go
package availabilityRepo

import (
	"context"

	"expertmeet/database"
	"expertmeet/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// AvailabilityRepository stores recurring weekly availability rules.
// Missing records are reported as mongo.ErrNoDocuments.
type AvailabilityRepository interface {
	Create(ctx context.Context, rule *models.AvailabilityRule) error
	Delete(ctx context.Context, providerID, ruleID string) error
	ListByProvider(ctx context.Context, providerID string) ([]models.AvailabilityRule, error)
	ListByProviderAndDay(ctx context.Context, providerID string, dayOfWeek int) ([]models.AvailabilityRule, error)
}

var _ AvailabilityRepository = (*MongoAvailabilityRepo)(nil)

type MongoAvailabilityRepo struct {
	coll *mongo.Collection
}

// NewMongoAvailabilityRepo constructs a new MongoDB AvailabilityRepository.
func NewMongoAvailabilityRepo() *MongoAvailabilityRepo {
	return &MongoAvailabilityRepo{
		coll: database.DB().Collection("provider_availability"),
	}
}
