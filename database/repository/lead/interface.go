// File: database/repository/lead/interface.go
package leadRepo

import (
	"context"

	"expertmeet/database"
	"expertmeet/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// LeadRepository stores at most one lead per provider/client pair.
type LeadRepository interface {
	// InsertIfAbsent stores lead unless the pair already has one; created is
	// false in that case.
	InsertIfAbsent(ctx context.Context, lead *models.Lead) (created bool, err error)
	ExistsFor(ctx context.Context, providerID, clientID string) (bool, error)
	ListByProvider(ctx context.Context, providerID string) ([]models.Lead, error)
	UpdateStatus(ctx context.Context, providerID, leadID string, status models.LeadStatus) (*models.Lead, error)
}

var _ LeadRepository = (*MongoLeadRepo)(nil)

type MongoLeadRepo struct {
	coll *mongo.Collection
}

// NewMongoLeadRepo constructs a new MongoDB LeadRepository.
func NewMongoLeadRepo() *MongoLeadRepo {
	return &MongoLeadRepo{
		coll: database.DB().Collection("leads"),
	}
}
