// File: database/repository/message/interface.go
package messageRepo

import (
	"context"

	"expertmeet/database"
	"expertmeet/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// MessageRepository persists conversation messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	// ExistsBetween reports whether a and b exchanged any message, in either
	// direction, other than excludeID.
	ExistsBetween(ctx context.Context, a, b, excludeID string) (bool, error)
	Conversation(ctx context.Context, a, b string, limit int64) ([]models.Message, error)
	GetByRoomID(ctx context.Context, roomID string) (*models.Message, error)
}

var _ MessageRepository = (*MongoMessageRepo)(nil)

type MongoMessageRepo struct {
	coll *mongo.Collection
}

// NewMongoMessageRepo constructs a new MongoDB MessageRepository.
func NewMongoMessageRepo() *MongoMessageRepo {
	return &MongoMessageRepo{
		coll: database.DB().Collection("messages"),
	}
}
