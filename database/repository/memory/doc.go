// Package memoryRepo holds in-process implementations of the repository
// interfaces. They back `serve --memory` and the service tests.
package memoryRepo

import (
	appointmentRepo "expertmeet/database/repository/appointment"
	availabilityRepo "expertmeet/database/repository/availability"
	documentRepo "expertmeet/database/repository/document"
	leadRepo "expertmeet/database/repository/lead"
	messageRepo "expertmeet/database/repository/message"
	planRepo "expertmeet/database/repository/plan"
	profileRepo "expertmeet/database/repository/profile"
	usageRepo "expertmeet/database/repository/usage"
)

var (
	_ availabilityRepo.AvailabilityRepository = (*AvailabilityRepo)(nil)
	_ appointmentRepo.AppointmentRepository   = (*AppointmentRepo)(nil)
	_ usageRepo.UsageRepository               = (*UsageRepo)(nil)
	_ planRepo.PlanRepository                 = (*PlanRepo)(nil)
	_ leadRepo.LeadRepository                 = (*LeadRepo)(nil)
	_ messageRepo.MessageRepository           = (*MessageRepo)(nil)
	_ profileRepo.ProfileRepository           = (*ProfileRepo)(nil)
	_ documentRepo.DocumentRepository         = (*DocumentRepo)(nil)
)
