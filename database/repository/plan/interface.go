// File: database/repository/plan/interface.go
package planRepo

import (
	"context"

	"expertmeet/database"
	"expertmeet/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// PlanRepository reads subscription plan reference data and the provider to
// plan assignment. Missing records are reported as mongo.ErrNoDocuments.
type PlanRepository interface {
	GetByID(ctx context.Context, id string) (*models.SubscriptionPlan, error)
	GetByName(ctx context.Context, name string) (*models.SubscriptionPlan, error)
	List(ctx context.Context) ([]models.SubscriptionPlan, error)
	Upsert(ctx context.Context, plan models.SubscriptionPlan) error

	GetSubscription(ctx context.Context, providerID string) (*models.ProviderSubscription, error)
	// AssignIfAbsent gives the provider planID unless it already has an
	// active subscription, and returns whichever subscription is in effect.
	AssignIfAbsent(ctx context.Context, providerID, planID string) (*models.ProviderSubscription, error)
}

var _ PlanRepository = (*MongoPlanRepo)(nil)

type MongoPlanRepo struct {
	plans         *mongo.Collection
	subscriptions *mongo.Collection
}

// NewMongoPlanRepo constructs a new MongoDB PlanRepository.
func NewMongoPlanRepo() *MongoPlanRepo {
	db := database.DB()
	return &MongoPlanRepo{
		plans:         db.Collection("subscription_plans"),
		subscriptions: db.Collection("provider_subscriptions"),
	}
}
