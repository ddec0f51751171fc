// File: database/repository/usage/crud.go
package usageRepo

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

func periodFilter(providerID string, month, year int) bson.M {
	return bson.M{"providerId": providerID, "month": month, "year": year}
}

// onInsert seeds every field not touched by the accompanying update operator.
func onInsert(now time.Time, skip ...string) bson.M {
	fields := bson.M{
		"id":                 uuid.New().String(),
		"appointmentsUsed":   0,
		"storageUsedMb":      0,
		"chatsUsed":          0,
		"uniqueChatPartners": bson.A{},
		"createdAt":          now,
	}
	for _, k := range skip {
		delete(fields, k)
	}
	return fields
}

func (r *MongoUsageRepo) GetOrCreate(ctx context.Context, providerID string, month, year int) (*models.UsagePeriod, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	seed := onInsert(now)
	seed["updatedAt"] = now
	update := bson.M{"$setOnInsert": seed}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var period models.UsagePeriod
	err := r.coll.FindOneAndUpdate(ctx, periodFilter(providerID, month, year), update, opts).Decode(&period)
	if mongo.IsDuplicateKeyError(err) {
		// Lost the upsert race on the unique index; the winner's document exists now.
		err = r.coll.FindOne(ctx, periodFilter(providerID, month, year)).Decode(&period)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get or create usage period: %w", err)
	}
	return &period, nil
}

func (r *MongoUsageRepo) Increment(ctx context.Context, providerID string, month, year int, inc models.UsageIncrement) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	counters := bson.M{}
	if inc.Appointments != 0 {
		counters["appointmentsUsed"] = inc.Appointments
	}
	if inc.StorageMb != 0 {
		counters["storageUsedMb"] = inc.StorageMb
	}
	if inc.Chats != 0 {
		counters["chatsUsed"] = inc.Chats
	}
	if len(counters) == 0 && inc.ChatPartner == "" {
		return nil
	}

	now := time.Now().UTC()
	skip := make([]string, 0, len(counters)+1)
	for k := range counters {
		skip = append(skip, k)
	}
	update := bson.M{"$set": bson.M{"updatedAt": now}}
	if len(counters) > 0 {
		update["$inc"] = counters
	}
	if inc.ChatPartner != "" {
		update["$addToSet"] = bson.M{"uniqueChatPartners": inc.ChatPartner}
		skip = append(skip, "uniqueChatPartners")
	}
	update["$setOnInsert"] = onInsert(now, skip...)

	_, err := r.coll.UpdateOne(ctx, periodFilter(providerID, month, year), update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		_, err = r.coll.UpdateOne(ctx, periodFilter(providerID, month, year), update)
	}
	if err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	return nil
}
