// FILE: database/repository/message/indexes.go
package messageRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the messages collection.
func (r *MongoMessageRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "senderId", Value: 1}, {Key: "recipientId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("pair_created_idx"),
		},
		{
			Keys:    bson.D{{Key: "roomId", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("room_idx"),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create message indexes: %w", err)
	}
	return nil
}
