// File: database/repository/usage/interface.go
package usageRepo

import (
	"context"

	"expertmeet/database"
	"expertmeet/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// UsageRepository stores one counter document per provider per month.
type UsageRepository interface {
	// GetOrCreate returns the period, creating it zeroed when absent. Concurrent
	// first calls converge on a single document.
	GetOrCreate(ctx context.Context, providerID string, month, year int) (*models.UsagePeriod, error)
	// Increment applies inc atomically, creating the period if needed.
	Increment(ctx context.Context, providerID string, month, year int, inc models.UsageIncrement) error
}

var _ UsageRepository = (*MongoUsageRepo)(nil)

type MongoUsageRepo struct {
	coll *mongo.Collection
}

// NewMongoUsageRepo constructs a new MongoDB UsageRepository.
func NewMongoUsageRepo() *MongoUsageRepo {
	return &MongoUsageRepo{
		coll: database.DB().Collection("provider_usage"),
	}
}
