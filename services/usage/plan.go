package usage

import (
	"context"
	"errors"
	"fmt"

	"expertmeet/models"
	"expertmeet/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureActivePlan returns the provider's plan, assigning the default plan on
// first use. A missing default plan is a ConfigurationError.
func (s *DefaultUsageService) EnsureActivePlan(ctx context.Context, providerID string) (*models.SubscriptionPlan, error) {
	sub, err := s.Plans.GetSubscription(ctx, providerID)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("EnsureActivePlan: %w", err)
	}

	if sub == nil {
		free, err := s.Plans.GetByName(ctx, s.FreePlanName)
		if errors.Is(err, mongo.ErrNoDocuments) {
			s.Logger.Error("default plan missing from reference data", zap.String("plan", s.FreePlanName))
			return nil, utils.NewAppError(utils.KindConfiguration, "default plan %q is not configured", s.FreePlanName)
		}
		if err != nil {
			return nil, fmt.Errorf("EnsureActivePlan: %w", err)
		}
		sub, err = s.Plans.AssignIfAbsent(ctx, providerID, free.ID)
		if err != nil {
			return nil, fmt.Errorf("EnsureActivePlan: %w", err)
		}
		if sub.PlanID == free.ID {
			s.Logger.Info("assigned default plan", zap.String("providerId", providerID), zap.String("plan", free.Name))
			return free, nil
		}
	}

	plan, err := s.Plans.GetByID(ctx, sub.PlanID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewAppError(utils.KindConfiguration, "plan %q assigned to provider does not exist", sub.PlanID)
	}
	if err != nil {
		return nil, fmt.Errorf("EnsureActivePlan: %w", err)
	}
	return plan, nil
}
