// File: database/repository/plan/subscription.go
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

func (r *MongoPlanRepo) GetSubscription(ctx context.Context, providerID string) (*models.ProviderSubscription, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"providerId": providerID, "status": models.SubscriptionActive}
	var sub models.ProviderSubscription
	if err := r.subscriptions.FindOne(ctx, filter).Decode(&sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *MongoPlanRepo) AssignIfAbsent(ctx context.Context, providerID, planID string) (*models.ProviderSubscription, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"providerId": providerID, "status": models.SubscriptionActive}
	update := bson.M{"$setOnInsert": bson.M{
		"providerId": providerID,
		"planId":     planID,
		"status":     models.SubscriptionActive,
		"assignedAt": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var sub models.ProviderSubscription
	err := r.subscriptions.FindOneAndUpdate(ctx, filter, update, opts).Decode(&sub)
	if mongo.IsDuplicateKeyError(err) {
		err = r.subscriptions.FindOne(ctx, filter).Decode(&sub)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to assign plan: %w", err)
	}
	return &sub, nil
}
