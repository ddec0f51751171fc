package booking

import (
	"context"
	"fmt"
	"time"

	"expertmeet/models"
	"expertmeet/services/tasks"

	"go.uber.org/zap"
)

type effect struct {
	name string
	run  func(ctx context.Context) error
}

// runInline executes effects in order before the caller returns. Each has its
// own recover boundary and failures are logged only.
func (e *DefaultBookingEngine) runInline(ctx context.Context, apptID string, effects []effect) {
	ctx = context.WithoutCancel(ctx)
	for _, eff := range effects {
		e.runEffect(ctx, apptID, eff)
	}
}

// runEffects executes each effect in the background with its own recover
// boundary. Failures are logged only.
func (e *DefaultBookingEngine) runEffects(ctx context.Context, apptID string, effects []effect) {
	ctx = context.WithoutCancel(ctx)
	e.effects.Add(1)
	go func() {
		defer e.effects.Done()
		for _, eff := range effects {
			e.runEffect(ctx, apptID, eff)
		}
	}()
}

func (e *DefaultBookingEngine) runEffect(ctx context.Context, apptID string, eff effect) {
	defer func() {
		if r := recover(); r != nil {
			e.Logger.Error("booking effect panicked",
				zap.String("effect", eff.name),
				zap.String("appointmentId", apptID),
				zap.Any("recover", r))
		}
	}()
	if err := eff.run(ctx); err != nil {
		e.Logger.Warn("booking effect failed",
			zap.String("effect", eff.name),
			zap.String("appointmentId", apptID),
			zap.Error(err))
	}
}

// bookingEffects splits the post-booking work. Usage and lead bookkeeping must
// be visible to the next booking, so they run inline; pushes and reminders
// run in the background.
func (e *DefaultBookingEngine) bookingEffects(appt models.Appointment, client models.Profile) (inline, background []effect) {
	inline = []effect{
		{name: "record_usage", run: func(ctx context.Context) error {
			return e.Usage.RecordUsage(ctx, appt.ProviderID, models.UsageAppointment, models.UsageDelta{})
		}},
		{name: "emit_lead", run: func(ctx context.Context) error {
			l, created, err := e.Leads.EmitLead(ctx, models.LeadInput{
				ProviderID: appt.ProviderID,
				ClientID:   appt.ClientID,
				Source:     models.LeadFromBooking,
				SourceID:   appt.ID,
			})
			if err == nil && created {
				e.Logger.Info("lead created", zap.String("leadId", l.ID), zap.String("providerId", appt.ProviderID))
			}
			return err
		}},
	}
	if e.Notifier != nil {
		background = append(background, effect{name: "notify_provider", run: func(ctx context.Context) error {
			return e.Notifier.NotifyAppointmentBooked(ctx, appt, client)
		}})
	}
	if e.Reminders != nil {
		background = append(background, effect{name: "schedule_reminders", run: func(ctx context.Context) error {
			return e.scheduleReminders(ctx, appt)
		}})
	}
	return inline, background
}

// scheduleReminders enqueues one push per party ReminderLead before the start.
// Appointments starting too soon get none.
func (e *DefaultBookingEngine) scheduleReminders(ctx context.Context, appt models.Appointment) error {
	start, err := appt.StartsAt(e.Location)
	if err != nil {
		return fmt.Errorf("scheduleReminders: %w", err)
	}
	fireAt := start.Add(-e.ReminderLead)
	if !fireAt.After(e.Now()) {
		return nil
	}

	targets := []struct {
		id   string
		role models.Role
	}{
		{appt.ClientID, models.RoleClient},
		{appt.ProviderID, models.RoleProvider},
	}
	for _, t := range targets {
		payload := models.ReminderPayload{
			ID:            t.id,
			AppointmentID: appt.ID,
			Title:         "Upcoming appointment",
			Body:          fmt.Sprintf("%s starts at %s on %s.", appt.Service, appt.Time, appt.Date),
			FireDate:      fireAt.Format(time.RFC3339),
			Target:        t.role,
		}
		task, opts, err := tasks.NewReminderTask(payload, fireAt)
		if err != nil {
			return fmt.Errorf("scheduleReminders: %w", err)
		}
		if _, err := e.Reminders.EnqueueContext(ctx, task, opts...); err != nil {
			return fmt.Errorf("scheduleReminders: enqueue for %s: %w", t.role, err)
		}
	}
	return nil
}
