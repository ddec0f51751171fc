package models

import "time"

// AvailabilityRule is a recurring weekly window in which a provider takes bookings.
type AvailabilityRule struct {
	ID         string    `bson:"id" json:"id"`
	ProviderID string    `bson:"providerId" json:"providerId"`
	DayOfWeek  int       `bson:"dayOfWeek" json:"dayOfWeek"` // 0 = Sunday
	StartTime  string    `bson:"startTime" json:"startTime"` // HH:MM
	EndTime    string    `bson:"endTime" json:"endTime"`     // HH:MM
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}

// CreateAvailabilityRuleRequest is the payload for adding a weekly window.
type CreateAvailabilityRuleRequest struct {
	DayOfWeek *int   `json:"dayOfWeek" binding:"required,min=0,max=6"`
	StartTime string `json:"startTime" binding:"required,hhmm"`
	EndTime   string `json:"endTime" binding:"required,hhmm"`
}

// SlotsResponse lists derived start times for one date.
type SlotsResponse struct {
	ProviderID string   `json:"providerId"`
	Date       string   `json:"date"`
	Slots      []string `json:"slots"`
}
