package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	appointmentRepo "expertmeet/database/repository/appointment"
	profileRepo "expertmeet/database/repository/profile"
	"expertmeet/models"
	"expertmeet/services/callroom"
	"expertmeet/services/lead"
	"expertmeet/services/usage"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// BookingEngine turns a client's slot choice into a persisted appointment and
// drives its status afterwards.
type BookingEngine interface {
	BookAppointment(ctx context.Context, clientID string, req models.BookAppointmentRequest) (*models.Appointment, error)
	CancelAppointment(ctx context.Context, appointmentID string) (*models.Appointment, error)
	ConfirmAppointment(ctx context.Context, providerID, appointmentID string) (*models.Appointment, error)
	GetAppointment(ctx context.Context, userID, appointmentID string) (*models.Appointment, error)
	ListAppointments(ctx context.Context, userID string, role models.Role) ([]models.Appointment, error)
	CompleteElapsed(ctx context.Context, now time.Time) (int64, error)
}

// Notifier pushes appointment events to devices.
type Notifier interface {
	NotifyAppointmentBooked(ctx context.Context, appt models.Appointment, client models.Profile) error
	NotifyAppointmentStatus(ctx context.Context, appt models.Appointment, recipientID string) error
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// DefaultBookingEngine is the production BookingEngine. Notifier and
// Reminders are optional; a nil value skips that effect.
type DefaultBookingEngine struct {
	Profiles     profileRepo.ProfileRepository
	Appointments appointmentRepo.AppointmentRepository
	Usage        usage.UsageService
	Rooms        callroom.Provisioner
	Leads        lead.LeadService
	Notifier     Notifier
	Reminders    Enqueuer
	ReminderLead time.Duration
	Location     *time.Location
	Now          func() time.Time
	Logger       *zap.Logger

	effects sync.WaitGroup
}

func NewDefaultBookingEngine(
	profiles profileRepo.ProfileRepository,
	appts appointmentRepo.AppointmentRepository,
	usageSvc usage.UsageService,
	rooms callroom.Provisioner,
	leads lead.LeadService,
	logger *zap.Logger,
) (*DefaultBookingEngine, error) {
	if profiles == nil || appts == nil || usageSvc == nil || rooms == nil || leads == nil {
		return nil, fmt.Errorf("booking engine initialization error: a dependency is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultBookingEngine{
		Profiles:     profiles,
		Appointments: appts,
		Usage:        usageSvc,
		Rooms:        rooms,
		Leads:        leads,
		ReminderLead: time.Hour,
		Location:     time.UTC,
		Now:          time.Now,
		Logger:       logger,
	}, nil
}

// Drain blocks until every in-flight booking effect has finished.
func (e *DefaultBookingEngine) Drain() {
	e.effects.Wait()
}
