package models

// ReminderPayload is the asynq task body for a push reminder.
type ReminderPayload struct {
	ID            string `json:"id"` // profile id of the recipient
	AppointmentID string `json:"appointmentId"`
	Title         string `json:"title"`
	Body          string `json:"body"`
	FireDate      string `json:"fireDate"`
	Target        Role   `json:"target"`
}
