// FILE: database/repository/plan/indexes.go
package planRepo

import (
	"context"
	"fmt"
	"time"

	"expertmeet/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes on subscription_plans and provider_subscriptions.
func (r *MongoPlanRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	planIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_name"),
		},
	}
	if _, err := r.plans.Indexes().CreateMany(ctx, planIndexes); err != nil {
		return fmt.Errorf("failed to create plan indexes: %w", err)
	}

	// One active subscription per provider.
	subIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "providerId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_active_provider").
				SetPartialFilterExpression(bson.M{"status": models.SubscriptionActive}),
		},
	}
	if _, err := r.subscriptions.Indexes().CreateMany(ctx, subIndexes); err != nil {
		return fmt.Errorf("failed to create subscription indexes: %w", err)
	}
	return nil
}
