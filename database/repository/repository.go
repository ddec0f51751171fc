// Package repository assembles the per-entity repositories behind one set so the
// commands can switch between MongoDB and in-process storage.
package repository

import (
	"context"

	appointmentRepo "expertmeet/database/repository/appointment"
	availabilityRepo "expertmeet/database/repository/availability"
	documentRepo "expertmeet/database/repository/document"
	leadRepo "expertmeet/database/repository/lead"
	memoryRepo "expertmeet/database/repository/memory"
	messageRepo "expertmeet/database/repository/message"
	planRepo "expertmeet/database/repository/plan"
	profileRepo "expertmeet/database/repository/profile"
	usageRepo "expertmeet/database/repository/usage"
	"expertmeet/models"
)

// Re-export the repository interfaces.
type (
	AvailabilityRepository = availabilityRepo.AvailabilityRepository
	AppointmentRepository  = appointmentRepo.AppointmentRepository
	UsageRepository        = usageRepo.UsageRepository
	PlanRepository         = planRepo.PlanRepository
	LeadRepository         = leadRepo.LeadRepository
	MessageRepository      = messageRepo.MessageRepository
	ProfileRepository      = profileRepo.ProfileRepository
	DocumentRepository     = documentRepo.DocumentRepository
)

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// Set holds one repository per collection.
type Set struct {
	Availability AvailabilityRepository
	Appointments AppointmentRepository
	Usage        UsageRepository
	Plans        PlanRepository
	Leads        LeadRepository
	Messages     MessageRepository
	Profiles     ProfileRepository
	Documents    DocumentRepository
}

// NewMongoSet builds the MongoDB repositories. database.InitDB must have run.
func NewMongoSet() *Set {
	return &Set{
		Availability: availabilityRepo.NewMongoAvailabilityRepo(),
		Appointments: appointmentRepo.NewMongoAppointmentRepo(),
		Usage:        usageRepo.NewMongoUsageRepo(),
		Plans:        planRepo.NewMongoPlanRepo(),
		Leads:        leadRepo.NewMongoLeadRepo(),
		Messages:     messageRepo.NewMongoMessageRepo(),
		Profiles:     profileRepo.NewMongoProfileRepo(),
		Documents:    documentRepo.NewMongoDocumentRepo(),
	}
}

// NewMemorySet builds in-process repositories seeded with the given plans.
func NewMemorySet(plans ...models.SubscriptionPlan) *Set {
	return &Set{
		Availability: memoryRepo.NewAvailabilityRepo(),
		Appointments: memoryRepo.NewAppointmentRepo(),
		Usage:        memoryRepo.NewUsageRepo(),
		Plans:        memoryRepo.NewPlanRepo(plans...),
		Leads:        memoryRepo.NewLeadRepo(),
		Messages:     memoryRepo.NewMessageRepo(),
		Profiles:     memoryRepo.NewProfileRepo(),
		Documents:    memoryRepo.NewDocumentRepo(),
	}
}

// EnsureIndexes creates the indexes of every repository that declares them.
func (s *Set) EnsureIndexes(ctx context.Context) error {
	for _, r := range []any{s.Availability, s.Appointments, s.Usage, s.Plans, s.Leads, s.Messages, s.Profiles, s.Documents} {
		if ix, ok := r.(indexer); ok {
			if err := ix.EnsureIndexes(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}
