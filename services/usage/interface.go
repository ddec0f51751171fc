package usage

import (
	"context"
	"fmt"
	"time"

	planRepo "expertmeet/database/repository/plan"
	usageRepo "expertmeet/database/repository/usage"
	"expertmeet/models"

	"go.uber.org/zap"
)

// UsageService gates and records a provider's monthly consumption.
type UsageService interface {
	GetOrCreatePeriod(ctx context.Context, providerID string) (*models.UsagePeriod, error)
	EnsureActivePlan(ctx context.Context, providerID string) (*models.SubscriptionPlan, error)
	CheckLimit(ctx context.Context, providerID string, kind models.UsageKind, delta models.UsageDelta) error
	RecordUsage(ctx context.Context, providerID string, kind models.UsageKind, delta models.UsageDelta) error
	Summary(ctx context.Context, providerID string) (*models.UsageSummary, error)
}

// DefaultUsageService meters against the calendar month of Now in UTC.
type DefaultUsageService struct {
	Usage        usageRepo.UsageRepository
	Plans        planRepo.PlanRepository
	FreePlanName string
	Now          func() time.Time
	Logger       *zap.Logger
}

func NewDefaultUsageService(usage usageRepo.UsageRepository, plans planRepo.PlanRepository, freePlanName string, logger *zap.Logger) (*DefaultUsageService, error) {
	if usage == nil || plans == nil {
		return nil, fmt.Errorf("usage service initialization error: usage or plan repository is nil")
	}
	if freePlanName == "" {
		freePlanName = "Free"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultUsageService{
		Usage:        usage,
		Plans:        plans,
		FreePlanName: freePlanName,
		Now:          time.Now,
		Logger:       logger,
	}, nil
}

func (s *DefaultUsageService) period() (month, year int) {
	now := s.Now().UTC()
	return int(now.Month()), now.Year()
}
