package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expertmeet/models"
	"expertmeet/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// BookAppointment validates both parties, gates on the provider's appointment
// quota, provisions a room for video calls and persists the appointment as
// pending. Usage and lead effects run before it returns, push and reminder
// effects afterwards; none of them fail the booking. Slots are not exclusive.
func (e *DefaultBookingEngine) BookAppointment(ctx context.Context, clientID string, req models.BookAppointmentRequest) (*models.Appointment, error) {
	client, err := e.profileWithRole(ctx, clientID, models.RoleClient)
	if err != nil {
		return nil, err
	}
	if _, err := e.profileWithRole(ctx, req.ProviderID, models.RoleProvider); err != nil {
		return nil, err
	}

	if err := e.Usage.CheckLimit(ctx, req.ProviderID, models.UsageAppointment, models.UsageDelta{}); err != nil {
		return nil, err
	}

	var roomID *string
	if req.Method == models.MethodVideo {
		id, err := e.Rooms.Provision(ctx)
		if err != nil {
			if utils.KindOf(err) == "" {
				err = utils.WrapAppError(utils.KindCallProvisioning, err, "could not allocate a call room")
			}
			return nil, err
		}
		roomID = &id
	}

	now := e.Now().UTC()
	appt := &models.Appointment{
		ID:         uuid.New().String(),
		ClientID:   clientID,
		ProviderID: req.ProviderID,
		Service:    req.Service,
		Date:       req.Date,
		Time:       req.Time,
		Method:     req.Method,
		Status:     models.AppointmentPending,
		CallRoomID: roomID,
		Notes:      req.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := e.Appointments.Create(ctx, appt); err != nil {
		return nil, fmt.Errorf("BookAppointment: %w", err)
	}
	e.Logger.Info("appointment booked",
		zap.String("appointmentId", appt.ID),
		zap.String("providerId", appt.ProviderID),
		zap.String("method", string(appt.Method)))

	inline, background := e.bookingEffects(*appt, *client)
	e.runInline(ctx, appt.ID, inline)
	if len(background) > 0 {
		e.runEffects(ctx, appt.ID, background)
	}
	return appt, nil
}

func (e *DefaultBookingEngine) profileWithRole(ctx context.Context, id string, role models.Role) (*models.Profile, error) {
	p, err := e.Profiles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewAppError(utils.KindNotFound, "%s %s not found", role, id)
		}
		return nil, fmt.Errorf("failed to load %s profile: %w", role, err)
	}
	if p.Role != role {
		return nil, utils.NewAppError(utils.KindNotFound, "%s %s not found", role, id)
	}
	return p, nil
}

// CancelAppointment marks any appointment canceled. Repeating it is a no-op.
func (e *DefaultBookingEngine) CancelAppointment(ctx context.Context, appointmentID string) (*models.Appointment, error) {
	appt, err := e.Appointments.UpdateStatus(ctx, appointmentID, models.AppointmentCanceled)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewAppError(utils.KindNotFound, "appointment %s not found", appointmentID)
		}
		return nil, fmt.Errorf("CancelAppointment: %w", err)
	}
	e.Logger.Info("appointment canceled", zap.String("appointmentId", appointmentID))
	return appt, nil
}

// ConfirmAppointment moves a pending appointment owned by providerID to confirmed.
func (e *DefaultBookingEngine) ConfirmAppointment(ctx context.Context, providerID, appointmentID string) (*models.Appointment, error) {
	current, err := e.GetAppointment(ctx, providerID, appointmentID)
	if err != nil {
		return nil, err
	}
	if current.ProviderID != providerID {
		return nil, utils.NewAppError(utils.KindForbidden, "only the provider can confirm an appointment")
	}
	if current.Status == models.AppointmentConfirmed {
		return current, nil
	}

	appt, err := e.Appointments.UpdateStatus(ctx, appointmentID, models.AppointmentConfirmed, models.AppointmentPending)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewAppError(utils.KindInvalidArgument, "appointment %s is %s and cannot be confirmed", appointmentID, current.Status)
		}
		return nil, fmt.Errorf("ConfirmAppointment: %w", err)
	}

	if e.Notifier != nil {
		e.runEffects(ctx, appt.ID, []effect{{name: "notify_client", run: func(ctx context.Context) error {
			return e.Notifier.NotifyAppointmentStatus(ctx, *appt, appt.ClientID)
		}}})
	}
	return appt, nil
}

// GetAppointment returns the appointment if userID is one of its parties.
// Outsiders get NotFound.
func (e *DefaultBookingEngine) GetAppointment(ctx context.Context, userID, appointmentID string) (*models.Appointment, error) {
	appt, err := e.Appointments.GetByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewAppError(utils.KindNotFound, "appointment %s not found", appointmentID)
		}
		return nil, fmt.Errorf("GetAppointment: %w", err)
	}
	if appt.ClientID != userID && appt.ProviderID != userID {
		return nil, utils.NewAppError(utils.KindNotFound, "appointment %s not found", appointmentID)
	}
	return appt, nil
}

func (e *DefaultBookingEngine) ListAppointments(ctx context.Context, userID string, role models.Role) ([]models.Appointment, error) {
	var (
		appts []models.Appointment
		err   error
	)
	switch role {
	case models.RoleProvider:
		appts, err = e.Appointments.ListByProvider(ctx, userID)
	case models.RoleClient:
		appts, err = e.Appointments.ListByClient(ctx, userID)
	default:
		return nil, utils.NewAppError(utils.KindInvalidArgument, "unknown role %q", role)
	}
	if err != nil {
		return nil, fmt.Errorf("ListAppointments: %w", err)
	}
	if appts == nil {
		appts = []models.Appointment{}
	}
	return appts, nil
}

// CompleteElapsed marks confirmed appointments dated before now's day as completed.
func (e *DefaultBookingEngine) CompleteElapsed(ctx context.Context, now time.Time) (int64, error) {
	today := now.In(e.Location).Format("2006-01-02")
	n, err := e.Appointments.CompleteConfirmedBefore(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("CompleteElapsed: %w", err)
	}
	if n > 0 {
		e.Logger.Info("completed elapsed appointments", zap.Int64("count", n), zap.String("before", today))
	}
	return n, nil
}
