// FILE: database/repository/usage/indexes.go
package usageRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the provider_usage collection.
// The unique period index is what makes concurrent first use converge.
func (r *MongoUsageRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "providerId", Value: 1}, {Key: "year", Value: 1}, {Key: "month", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_provider_period"),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create usage indexes: %w", err)
	}
	return nil
}
