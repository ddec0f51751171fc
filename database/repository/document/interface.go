// File: database/repository/document/interface.go
package documentRepo

import (
	"context"

	"expertmeet/database"
	"expertmeet/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// DocumentRepository stores metadata of uploaded documents.
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	ListForUser(ctx context.Context, userID string) ([]models.Document, error)
}

var _ DocumentRepository = (*MongoDocumentRepo)(nil)

type MongoDocumentRepo struct {
	coll *mongo.Collection
}

// NewMongoDocumentRepo constructs a new MongoDB DocumentRepository.
func NewMongoDocumentRepo() *MongoDocumentRepo {
	return &MongoDocumentRepo{
		coll: database.DB().Collection("documents"),
	}
}
