package models

import "time"

type LeadStatus string

const (
	LeadNew       LeadStatus = "new"
	LeadContacted LeadStatus = "contacted"
	LeadConverted LeadStatus = "converted"
	LeadLost      LeadStatus = "lost"
)

type LeadSource string

const (
	LeadFromBooking LeadSource = "booking"
	LeadFromMessage LeadSource = "message"
)

// Lead is a prospective client relationship seen from the provider's side.
type Lead struct {
	ID         string     `bson:"id" json:"id"`
	ProviderID string     `bson:"providerId" json:"providerId"`
	ClientID   string     `bson:"clientId" json:"clientId"`
	Status     LeadStatus `bson:"status" json:"status"`
	Source     LeadSource `bson:"source" json:"source"`
	SourceID   string     `bson:"sourceId" json:"sourceId"`
	CreatedAt  time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// LeadInput describes the action that may produce a lead. SourceID is the
// appointment or message that triggered it and is excluded from the
// prior-contact checks.
type LeadInput struct {
	ProviderID string
	ClientID   string
	Source     LeadSource
	SourceID   string
}

type UpdateLeadRequest struct {
	Status LeadStatus `json:"status" binding:"required,oneof=new contacted converted lost"`
}
