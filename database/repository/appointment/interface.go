// File: database/repository/appointment/interface.go
package appointmentRepo

import (
	"context"

	"expertmeet/database"
	"expertmeet/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// AppointmentRepository persists appointments. Missing records are reported as
// mongo.ErrNoDocuments.
type AppointmentRepository interface {
	Create(ctx context.Context, appt *models.Appointment) error
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	// UpdateStatus sets the status to `to`. When allowedFrom is non-empty the
	// update only applies if the current status is one of them.
	UpdateStatus(ctx context.Context, id string, to models.AppointmentStatus, allowedFrom ...models.AppointmentStatus) (*models.Appointment, error)
	ListByClient(ctx context.Context, clientID string) ([]models.Appointment, error)
	ListByProvider(ctx context.Context, providerID string) ([]models.Appointment, error)
	ExistsBetween(ctx context.Context, clientID, providerID, excludeID string) (bool, error)
	GetByRoomID(ctx context.Context, roomID string) (*models.Appointment, error)
	CompleteConfirmedBefore(ctx context.Context, date string) (int64, error)
}

var _ AppointmentRepository = (*MongoAppointmentRepo)(nil)

type MongoAppointmentRepo struct {
	coll *mongo.Collection
}

// NewMongoAppointmentRepo constructs a new MongoDB AppointmentRepository.
func NewMongoAppointmentRepo() *MongoAppointmentRepo {
	return &MongoAppointmentRepo{
		coll: database.DB().Collection("appointments"),
	}
}
