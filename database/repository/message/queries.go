// File: database/repository/message/queries.go
package messageRepo

import (
	"context"
	"fmt"
	"time"

	"expertmeet/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func pairFilter(a, b string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"senderId": a, "recipientId": b},
		bson.M{"senderId": b, "recipientId": a},
	}}
}

func (r *MongoMessageRepo) ExistsBetween(ctx context.Context, a, b, excludeID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := pairFilter(a, b)
	if excludeID != "" {
		filter["id"] = bson.M{"$ne": excludeID}
	}
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to count messages: %w", err)
	}
	return n > 0, nil
}

// Conversation returns up to limit of the latest messages, oldest first.
func (r *MongoMessageRepo) Conversation(ctx context.Context, a, b string, limit int64) ([]models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit)
	cursor, err := r.coll.Find(ctx, pairFilter(a, b), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}
	defer cursor.Close(ctx)

	msgs := []models.Message{}
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("failed to decode conversation: %w", err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *MongoMessageRepo) GetByRoomID(ctx context.Context, roomID string) (*models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var msg models.Message
	filter := bson.M{"roomId": roomID, "kind": models.MessageCallInvitation}
	if err := r.coll.FindOne(ctx, filter).Decode(&msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
