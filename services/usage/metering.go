package usage

import (
	"context"
	"fmt"
	"math"

	"expertmeet/models"
	"expertmeet/utils"

	"go.uber.org/zap"
)

// CeilMb rounds a size up to whole megabytes. Check and record both use it so
// the counter never drifts from what was admitted.
func CeilMb(sizeMb float64) int {
	if sizeMb <= 0 {
		return 0
	}
	return int(math.Ceil(sizeMb))
}

func (s *DefaultUsageService) GetOrCreatePeriod(ctx context.Context, providerID string) (*models.UsagePeriod, error) {
	month, year := s.period()
	p, err := s.Usage.GetOrCreate(ctx, providerID, month, year)
	if err != nil {
		return nil, fmt.Errorf("GetOrCreatePeriod: %w", err)
	}
	return p, nil
}

func (s *DefaultUsageService) CheckLimit(ctx context.Context, providerID string, kind models.UsageKind, delta models.UsageDelta) error {
	plan, err := s.EnsureActivePlan(ctx, providerID)
	if err != nil {
		return err
	}
	period, err := s.GetOrCreatePeriod(ctx, providerID)
	if err != nil {
		return err
	}

	switch kind {
	case models.UsageAppointment:
		if period.AppointmentsUsed >= plan.MonthlyAppointments {
			return utils.NewAppError(utils.KindQuotaExceeded,
				"monthly appointment limit of %d reached on the %s plan", plan.MonthlyAppointments, plan.Name)
		}
	case models.UsageStorage:
		if period.StorageUsedMb+CeilMb(delta.SizeMb) > plan.MonthlyStorageMb {
			return utils.NewAppError(utils.KindQuotaExceeded,
				"upload would exceed the %d MB monthly storage of the %s plan", plan.MonthlyStorageMb, plan.Name)
		}
	case models.UsageChat:
		if period.ChatsUsed >= plan.MonthlyChats {
			return utils.NewAppError(utils.KindQuotaExceeded,
				"monthly chat limit of %d reached on the %s plan", plan.MonthlyChats, plan.Name)
		}
		partners := len(period.UniqueChatPartners)
		if delta.PartnerID != "" && !period.HasPartner(delta.PartnerID) {
			partners++
		}
		if partners > plan.MonthlyChats {
			return utils.NewAppError(utils.KindQuotaExceeded,
				"monthly limit of %d chat partners reached on the %s plan", plan.MonthlyChats, plan.Name)
		}
	default:
		return utils.NewAppError(utils.KindInvalidArgument, "unknown usage kind %q", kind)
	}
	return nil
}

func (s *DefaultUsageService) RecordUsage(ctx context.Context, providerID string, kind models.UsageKind, delta models.UsageDelta) error {
	var inc models.UsageIncrement
	switch kind {
	case models.UsageAppointment:
		inc.Appointments = 1
	case models.UsageStorage:
		inc.StorageMb = CeilMb(delta.SizeMb)
	case models.UsageChat:
		inc.Chats = 1
		inc.ChatPartner = delta.PartnerID
	default:
		return utils.NewAppError(utils.KindInvalidArgument, "unknown usage kind %q", kind)
	}

	month, year := s.period()
	if err := s.Usage.Increment(ctx, providerID, month, year, inc); err != nil {
		return fmt.Errorf("RecordUsage: %w", err)
	}
	s.Logger.Debug("usage recorded",
		zap.String("providerId", providerID),
		zap.String("kind", string(kind)),
		zap.Int("storageMb", inc.StorageMb))
	return nil
}

func (s *DefaultUsageService) Summary(ctx context.Context, providerID string) (*models.UsageSummary, error) {
	plan, err := s.EnsureActivePlan(ctx, providerID)
	if err != nil {
		return nil, err
	}
	period, err := s.GetOrCreatePeriod(ctx, providerID)
	if err != nil {
		return nil, err
	}
	return &models.UsageSummary{Plan: *plan, Period: *period}, nil
}
