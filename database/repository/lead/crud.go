// File: database/repository/lead/crud.go
package leadRepo

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

func (r *MongoLeadRepo) InsertIfAbsent(ctx context.Context, lead *models.Lead) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	lead.CreatedAt = now
	lead.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, lead); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert lead: %w", err)
	}
	return true, nil
}

func (r *MongoLeadRepo) ExistsFor(ctx context.Context, providerID, clientID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"providerId": providerID, "clientId": clientID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to count leads: %w", err)
	}
	return n > 0, nil
}

func (r *MongoLeadRepo) ListByProvider(ctx context.Context, providerID string) ([]models.Lead, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"providerId": providerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer cursor.Close(ctx)

	leads := []models.Lead{}
	if err := cursor.All(ctx, &leads); err != nil {
		return nil, fmt.Errorf("failed to decode leads: %w", err)
	}
	return leads, nil
}

func (r *MongoLeadRepo) UpdateStatus(ctx context.Context, providerID, leadID string, status models.LeadStatus) (*models.Lead, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": leadID, "providerId": providerID}
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var lead models.Lead
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&lead); err != nil {
		return nil, err
	}
	return &lead, nil
}
