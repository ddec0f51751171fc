package models

import "time"

type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCanceled  AppointmentStatus = "canceled"
)

// IsTerminal reports whether no further transition is allowed.
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentCompleted || s == AppointmentCanceled
}

type AppointmentMethod string

const (
	MethodVideo    AppointmentMethod = "video"
	MethodInPerson AppointmentMethod = "in-person"
)

// Appointment is a client's booking against a provider's derived slot.
// CallRoomID is set exactly when Method is video.
type Appointment struct {
	ID         string            `bson:"id" json:"id"`
	ClientID   string            `bson:"clientId" json:"clientId"`
	ProviderID string            `bson:"providerId" json:"providerId"`
	Service    string            `bson:"service" json:"service"`
	Date       string            `bson:"date" json:"date"` // YYYY-MM-DD
	Time       string            `bson:"time" json:"time"` // HH:MM
	Method     AppointmentMethod `bson:"method" json:"method"`
	Status     AppointmentStatus `bson:"status" json:"status"`
	CallRoomID *string           `bson:"callRoomId" json:"callRoomId"`
	Notes      string            `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt  time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time         `bson:"updatedAt" json:"updatedAt"`
}

// StartsAt combines Date and Time in loc.
func (a Appointment) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", a.Date+" "+a.Time, loc)
}

// BookAppointmentRequest is the client's booking payload.
type BookAppointmentRequest struct {
	ProviderID string            `json:"providerId" binding:"required"`
	Service    string            `json:"service" binding:"required"`
	Date       string            `json:"date" binding:"required,datetime=2006-01-02"`
	Time       string            `json:"time" binding:"required,hhmm"`
	Method     AppointmentMethod `json:"method" binding:"required,oneof=video in-person"`
	Notes      string            `json:"notes"`
}
