package tasks

import (
	"encoding/json"
	"time"

	"expertmeet/models"

	"github.com/hibiken/asynq"
)

const (
	TypeSendReminder       = "reminder:send"
	TypeCompleteElapsed    = "appointments:complete"
	QueueDefault           = "default"
	reminderRetentionHours = 24
)

// NewReminderTask builds a push reminder delivered at fireAt. The task id is
// derived from the appointment so re-enqueueing the same reminder is a no-op.
func NewReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.Queue(QueueDefault),
		asynq.Retention(reminderRetentionHours * time.Hour),
	}
	if payload.AppointmentID != "" {
		opts = append(opts, asynq.TaskID("reminder:"+payload.AppointmentID+":"+string(payload.Target)))
	}
	return task, opts, nil
}

// NewCompleteElapsedTask builds the periodic sweep that completes past appointments.
func NewCompleteElapsedTask() *asynq.Task {
	return asynq.NewTask(TypeCompleteElapsed, nil)
}
