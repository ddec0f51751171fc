package models

import "time"

// SubscriptionPlan is read-only reference data gating monthly usage.
type SubscriptionPlan struct {
	ID                  string `bson:"id" json:"id"`
	Name                string `bson:"name" json:"name"`
	MonthlyAppointments int    `bson:"monthlyAppointments" json:"monthlyAppointments"`
	MonthlyStorageMb    int    `bson:"monthlyStorageMb" json:"monthlyStorageMb"`
	MonthlyChats        int    `bson:"monthlyChats" json:"monthlyChats"`
	PriceCents          int64  `bson:"priceCents" json:"priceCents"`
}

// ProviderSubscription links a provider to its active plan.
type ProviderSubscription struct {
	ProviderID string    `bson:"providerId" json:"providerId"`
	PlanID     string    `bson:"planId" json:"planId"`
	Status     string    `bson:"status" json:"status"`
	AssignedAt time.Time `bson:"assignedAt" json:"assignedAt"`
}

const SubscriptionActive = "active"

// DefaultPlans seeds the reference plans.
func DefaultPlans() []SubscriptionPlan {
	return []SubscriptionPlan{
		{ID: "plan_free", Name: "Free", MonthlyAppointments: 10, MonthlyStorageMb: 100, MonthlyChats: 5},
		{ID: "plan_pro", Name: "Professional", MonthlyAppointments: 100, MonthlyStorageMb: 5120, MonthlyChats: 100, PriceCents: 2900},
		{ID: "plan_firm", Name: "Firm", MonthlyAppointments: 1000, MonthlyStorageMb: 51200, MonthlyChats: 1000, PriceCents: 9900},
	}
}
