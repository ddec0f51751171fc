package availability

import (
	"context"
	"fmt"
	"time"

	availabilityRepo "expertmeet/database/repository/availability"
	"expertmeet/models"

	"go.uber.org/zap"
)

// SlotStep is the fixed granularity of bookable start times.
const SlotStep = 30 * time.Minute

// AvailabilityService manages weekly rules and derives bookable start times.
type AvailabilityService interface {
	CreateRule(ctx context.Context, providerID string, dayOfWeek int, start, end string) (*models.AvailabilityRule, error)
	DeleteRule(ctx context.Context, providerID, ruleID string) error
	ListRules(ctx context.Context, providerID string) ([]models.AvailabilityRule, error)
	DeriveSlots(ctx context.Context, providerID string, date time.Time) ([]string, error)
}

// DefaultAvailabilityService reads rules through an optional cache.
type DefaultAvailabilityService struct {
	Repo   availabilityRepo.AvailabilityRepository
	Cache  RuleCache
	Logger *zap.Logger
}

func NewDefaultAvailabilityService(repo availabilityRepo.AvailabilityRepository, cache RuleCache, logger *zap.Logger) (*DefaultAvailabilityService, error) {
	if repo == nil {
		return nil, fmt.Errorf("availability service initialization error: repository is nil")
	}
	if cache == nil {
		cache = noopCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultAvailabilityService{Repo: repo, Cache: cache, Logger: logger}, nil
}
