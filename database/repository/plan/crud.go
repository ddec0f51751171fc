// File: database/repository/plan/crud.go
package planRepo

import (
	"context"
	"fmt"
	"time"

	"expertmeet/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *MongoPlanRepo) GetByID(ctx context.Context, id string) (*models.SubscriptionPlan, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *MongoPlanRepo) GetByName(ctx context.Context, name string) (*models.SubscriptionPlan, error) {
	return r.findOne(ctx, bson.M{"name": name})
}

func (r *MongoPlanRepo) findOne(ctx context.Context, filter bson.M) (*models.SubscriptionPlan, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var plan models.SubscriptionPlan
	if err := r.plans.FindOne(ctx, filter).Decode(&plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *MongoPlanRepo) List(ctx context.Context) ([]models.SubscriptionPlan, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.plans.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "priceCents", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer cursor.Close(ctx)

	plans := []models.SubscriptionPlan{}
	if err := cursor.All(ctx, &plans); err != nil {
		return nil, fmt.Errorf("failed to decode plans: %w", err)
	}
	return plans, nil
}

func (r *MongoPlanRepo) Upsert(ctx context.Context, plan models.SubscriptionPlan) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.plans.ReplaceOne(ctx, bson.M{"id": plan.ID}, plan, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert plan %s: %w", plan.Name, err)
	}
	return nil
}
