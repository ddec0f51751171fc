package lead

import (
	"context"
	"fmt"

	appointmentRepo "expertmeet/database/repository/appointment"
	leadRepo "expertmeet/database/repository/lead"
	messageRepo "expertmeet/database/repository/message"
	"expertmeet/models"

	"go.uber.org/zap"
)

// LeadService derives CRM-style leads from first contact between a client and a provider.
type LeadService interface {
	EmitLead(ctx context.Context, in models.LeadInput) (*models.Lead, bool, error)
	ListLeads(ctx context.Context, providerID string) ([]models.Lead, error)
	UpdateLeadStatus(ctx context.Context, providerID, leadID string, status models.LeadStatus) (*models.Lead, error)
}

type DefaultLeadService struct {
	Leads        leadRepo.LeadRepository
	Appointments appointmentRepo.AppointmentRepository
	Messages     messageRepo.MessageRepository
	Logger       *zap.Logger
}

func NewDefaultLeadService(
	leads leadRepo.LeadRepository,
	appts appointmentRepo.AppointmentRepository,
	msgs messageRepo.MessageRepository,
	logger *zap.Logger,
) (*DefaultLeadService, error) {
	if leads == nil || appts == nil || msgs == nil {
		return nil, fmt.Errorf("lead service initialization error: a repository is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultLeadService{Leads: leads, Appointments: appts, Messages: msgs, Logger: logger}, nil
}
