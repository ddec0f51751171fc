package models

import "time"

// UsagePeriod tracks one provider's consumption for one calendar month.
type UsagePeriod struct {
	ID                 string    `bson:"id" json:"id"`
	ProviderID         string    `bson:"providerId" json:"providerId"`
	Month              int       `bson:"month" json:"month"`
	Year               int       `bson:"year" json:"year"`
	AppointmentsUsed   int       `bson:"appointmentsUsed" json:"appointmentsUsed"`
	StorageUsedMb      int       `bson:"storageUsedMb" json:"storageUsedMb"`
	ChatsUsed          int       `bson:"chatsUsed" json:"chatsUsed"`
	UniqueChatPartners []string  `bson:"uniqueChatPartners" json:"uniqueChatPartners"`
	CreatedAt          time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time `bson:"updatedAt" json:"updatedAt"`
}

// HasPartner reports whether partnerID was already counted this period.
func (p UsagePeriod) HasPartner(partnerID string) bool {
	for _, id := range p.UniqueChatPartners {
		if id == partnerID {
			return true
		}
	}
	return false
}

type UsageKind string

const (
	UsageAppointment UsageKind = "appointment"
	UsageStorage     UsageKind = "storage"
	UsageChat        UsageKind = "chat"
)

// UsageDelta carries the kind-specific amount of a metered action.
type UsageDelta struct {
	SizeMb    float64 // storage
	PartnerID string  // chat
}

// UsageIncrement is the counter change applied to a period.
type UsageIncrement struct {
	Appointments int
	StorageMb    int
	Chats        int
	ChatPartner  string
}

// UsageSummary is the provider dashboard view of plan and consumption.
type UsageSummary struct {
	Plan   SubscriptionPlan `json:"plan"`
	Period UsagePeriod      `json:"period"`
}
