// File: database/repository/message/crud.go
package messageRepo

import (
	"context"
	"fmt"
	"time"

	"expertmeet/models"

	"github.com/google/uuid"
)

func (r *MongoMessageRepo) Create(ctx context.Context, msg *models.Message) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if _, err := r.coll.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}
