package models

import "time"

type Role string

const (
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
)

// Profile is the marketplace identity of a client or provider.
type Profile struct {
	ID          string    `bson:"id" json:"id"`
	Role        Role      `bson:"role" json:"role"`
	DisplayName string    `bson:"displayName" json:"displayName"`
	Email       string    `bson:"email" json:"email,omitempty"`
	Headline    string    `bson:"headline,omitempty" json:"headline,omitempty"`
	Specialty   string    `bson:"specialty,omitempty" json:"specialty,omitempty"`
	HourlyRate  string    `bson:"hourlyRate,omitempty" json:"hourlyRate,omitempty"` // decimal string in major units
	FCMToken    string    `bson:"fcmToken,omitempty" json:"-"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// PublicView strips contact details for anonymous callers.
func (p Profile) PublicView() Profile {
	p.Email = ""
	p.FCMToken = ""
	return p
}

type UpdateProfileRequest struct {
	DisplayName string `json:"displayName" binding:"required,max=120"`
	Email       string `json:"email" binding:"omitempty,email"`
	Headline    string `json:"headline" binding:"max=200"`
	Specialty   string `json:"specialty" binding:"max=120"`
	HourlyRate  string `json:"hourlyRate" binding:"omitempty,numeric"`
}

type UpdateFCMTokenRequest struct {
	Token string `json:"token" binding:"required"`
}
