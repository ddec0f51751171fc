package lead

import (
	"context"
	"errors"
	"fmt"

	"expertmeet/models"
	"expertmeet/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EmitLead creates a "new" lead only when the client has no lead, no other
// appointment and no other message with the provider. The triggering
// appointment or message (in.SourceID) does not count as prior contact.
func (s *DefaultLeadService) EmitLead(ctx context.Context, in models.LeadInput) (*models.Lead, bool, error) {
	exists, err := s.Leads.ExistsFor(ctx, in.ProviderID, in.ClientID)
	if err != nil {
		return nil, false, fmt.Errorf("EmitLead: %w", err)
	}
	if exists {
		return nil, false, nil
	}

	excludeAppt, excludeMsg := "", ""
	switch in.Source {
	case models.LeadFromBooking:
		excludeAppt = in.SourceID
	case models.LeadFromMessage:
		excludeMsg = in.SourceID
	}

	priorAppt, err := s.Appointments.ExistsBetween(ctx, in.ClientID, in.ProviderID, excludeAppt)
	if err != nil {
		return nil, false, fmt.Errorf("EmitLead: %w", err)
	}
	if priorAppt {
		return nil, false, nil
	}
	priorMsg, err := s.Messages.ExistsBetween(ctx, in.ClientID, in.ProviderID, excludeMsg)
	if err != nil {
		return nil, false, fmt.Errorf("EmitLead: %w", err)
	}
	if priorMsg {
		return nil, false, nil
	}

	lead := &models.Lead{
		ProviderID: in.ProviderID,
		ClientID:   in.ClientID,
		Status:     models.LeadNew,
		Source:     in.Source,
		SourceID:   in.SourceID,
	}
	created, err := s.Leads.InsertIfAbsent(ctx, lead)
	if err != nil {
		return nil, false, fmt.Errorf("EmitLead: %w", err)
	}
	if !created {
		return nil, false, nil
	}
	s.Logger.Info("lead created",
		zap.String("providerId", in.ProviderID),
		zap.String("clientId", in.ClientID),
		zap.String("source", string(in.Source)))
	return lead, true, nil
}

func (s *DefaultLeadService) ListLeads(ctx context.Context, providerID string) ([]models.Lead, error) {
	leads, err := s.Leads.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("ListLeads: %w", err)
	}
	return leads, nil
}

func (s *DefaultLeadService) UpdateLeadStatus(ctx context.Context, providerID, leadID string, status models.LeadStatus) (*models.Lead, error) {
	switch status {
	case models.LeadNew, models.LeadContacted, models.LeadConverted, models.LeadLost:
	default:
		return nil, utils.NewAppError(utils.KindInvalidArgument, "unknown lead status %q", status)
	}
	lead, err := s.Leads.UpdateStatus(ctx, providerID, leadID, status)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewAppError(utils.KindNotFound, "lead not found")
	}
	if err != nil {
		return nil, fmt.Errorf("UpdateLeadStatus: %w", err)
	}
	return lead, nil
}
