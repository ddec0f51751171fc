// File: database/repository/availability/crud.go
package availabilityRepo

import (
	"context"
	"fmt"
	"time"

	"expertmeet/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *MongoAvailabilityRepo) Create(ctx context.Context, rule *models.AvailabilityRule) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}
	if _, err := r.coll.InsertOne(ctx, rule); err != nil {
		return fmt.Errorf("failed to insert availability rule: %w", err)
	}
	return nil
}

func (r *MongoAvailabilityRepo) Delete(ctx context.Context, providerID, ruleID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": ruleID, "providerId": providerID}
	res, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete availability rule: %w", err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MongoAvailabilityRepo) ListByProvider(ctx context.Context, providerID string) ([]models.AvailabilityRule, error) {
	return r.find(ctx, bson.M{"providerId": providerID},
		bson.D{{Key: "dayOfWeek", Value: 1}, {Key: "startTime", Value: 1}})
}

// ListByProviderAndDay returns the rules for one weekday in insertion order.
func (r *MongoAvailabilityRepo) ListByProviderAndDay(ctx context.Context, providerID string, dayOfWeek int) ([]models.AvailabilityRule, error) {
	return r.find(ctx, bson.M{"providerId": providerID, "dayOfWeek": dayOfWeek},
		bson.D{{Key: "createdAt", Value: 1}})
}

func (r *MongoAvailabilityRepo) find(ctx context.Context, filter bson.M, sort bson.D) ([]models.AvailabilityRule, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("failed to query availability rules: %w", err)
	}
	defer cursor.Close(ctx)

	rules := []models.AvailabilityRule{}
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, fmt.Errorf("failed to decode availability rules: %w", err)
	}
	return rules, nil
}
