// File: database/repository/profile/crud.go
package profileRepo

import (
	"context"
	"fmt"
	"time"

	"expertmeet/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *MongoProfileRepo) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p models.Profile
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert writes the editable profile fields, keeping createdAt and the FCM token.
func (r *MongoProfileRepo) Upsert(ctx context.Context, p *models.Profile) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	p.UpdatedAt = now
	update := bson.M{
		"$set": bson.M{
			"role":        p.Role,
			"displayName": p.DisplayName,
			"email":       p.Email,
			"headline":    p.Headline,
			"specialty":   p.Specialty,
			"hourlyRate":  p.HourlyRate,
			"updatedAt":   now,
		},
		"$setOnInsert": bson.M{"id": p.ID, "createdAt": now},
	}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"id": p.ID}, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

func (r *MongoProfileRepo) UpdateFCMToken(ctx context.Context, id, token string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"fcmToken": token, "updatedAt": time.Now().UTC()}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update fcm token: %w", err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
