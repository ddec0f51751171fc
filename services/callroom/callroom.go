package callroom

import (
	"context"
	"errors"
	"fmt"

	appointmentRepo "expertmeet/database/repository/appointment"
	messageRepo "expertmeet/database/repository/message"
	"expertmeet/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// Provisioner hands out identifiers for new call rooms.
type Provisioner interface {
	Provision(ctx context.Context) (string, error)
}

// UUIDProvisioner draws room ids from a random UUID source.
type UUIDProvisioner struct{}

func (UUIDProvisioner) Provision(context.Context) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", utils.WrapAppError(utils.KindCallProvisioning, err, "could not allocate a call room")
	}
	return "room_" + id.String(), nil
}

// Access decides whether a user may join a room: the room must belong to a
// video appointment or a call invitation the user is a party to.
type Access struct {
	Appointments appointmentRepo.AppointmentRepository
	Messages     messageRepo.MessageRepository
}

func NewAccess(appts appointmentRepo.AppointmentRepository, msgs messageRepo.MessageRepository) (*Access, error) {
	if appts == nil || msgs == nil {
		return nil, fmt.Errorf("room access initialization error: a repository is nil")
	}
	return &Access{Appointments: appts, Messages: msgs}, nil
}

// Authorize returns NotFound for unknown rooms and for rooms the user is not part of.
func (a *Access) Authorize(ctx context.Context, roomID, userID string) error {
	appt, err := a.Appointments.GetByRoomID(ctx, roomID)
	switch {
	case err == nil:
		if appt.ClientID == userID || appt.ProviderID == userID {
			return nil
		}
		return utils.NewAppError(utils.KindNotFound, "call room not found")
	case !errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("Authorize: %w", err)
	}

	msg, err := a.Messages.GetByRoomID(ctx, roomID)
	switch {
	case err == nil:
		if msg.SenderID == userID || msg.RecipientID == userID {
			return nil
		}
	case !errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("Authorize: %w", err)
	}
	return utils.NewAppError(utils.KindNotFound, "call room not found")
}
