package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expertmeet/models"
	"expertmeet/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ParseClock converts HH:MM into minutes after midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes after midnight as HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// SlotsForRule walks a rule in SlotStep increments, stopping strictly before its end.
func SlotsForRule(rule models.AvailabilityRule) ([]string, error) {
	start, err := ParseClock(rule.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := ParseClock(rule.EndTime)
	if err != nil {
		return nil, err
	}
	step := int(SlotStep / time.Minute)
	var out []string
	for m := start; m < end; m += step {
		out = append(out, FormatClock(m))
	}
	return out, nil
}

// DeriveSlots lists start times for date in rule order. Overlapping rules
// yield repeated times, and booked appointments are not subtracted.
func (s *DefaultAvailabilityService) DeriveSlots(ctx context.Context, providerID string, date time.Time) ([]string, error) {
	rules, err := s.rulesForDay(ctx, providerID, int(date.Weekday()))
	if err != nil {
		return nil, err
	}

	slots := []string{}
	for _, rule := range rules {
		ruleSlots, err := SlotsForRule(rule)
		if err != nil {
			s.Logger.Warn("skipping malformed availability rule", zap.String("ruleId", rule.ID), zap.Error(err))
			continue
		}
		slots = append(slots, ruleSlots...)
	}
	return slots, nil
}

func (s *DefaultAvailabilityService) rulesForDay(ctx context.Context, providerID string, day int) ([]models.AvailabilityRule, error) {
	if rules, ok := s.Cache.Get(ctx, providerID, day); ok {
		return rules, nil
	}
	rules, err := s.Repo.ListByProviderAndDay(ctx, providerID, day)
	if err != nil {
		return nil, fmt.Errorf("DeriveSlots: %w", err)
	}
	s.Cache.Set(ctx, providerID, day, rules)
	return rules, nil
}

func (s *DefaultAvailabilityService) CreateRule(ctx context.Context, providerID string, dayOfWeek int, start, end string) (*models.AvailabilityRule, error) {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return nil, utils.NewAppError(utils.KindInvalidArgument, "dayOfWeek must be between 0 and 6")
	}
	startMin, err := ParseClock(start)
	if err != nil {
		return nil, utils.WrapAppError(utils.KindInvalidArgument, err, "invalid start time")
	}
	endMin, err := ParseClock(end)
	if err != nil {
		return nil, utils.WrapAppError(utils.KindInvalidArgument, err, "invalid end time")
	}
	if startMin >= endMin {
		return nil, utils.NewAppError(utils.KindInvalidArgument, "start time must be before end time; windows cannot span midnight")
	}

	rule := &models.AvailabilityRule{
		ProviderID: providerID,
		DayOfWeek:  dayOfWeek,
		StartTime:  FormatClock(startMin),
		EndTime:    FormatClock(endMin),
	}
	if err := s.Repo.Create(ctx, rule); err != nil {
		return nil, fmt.Errorf("CreateRule: %w", err)
	}
	s.Cache.Invalidate(ctx, providerID, dayOfWeek)
	s.Logger.Info("availability rule created",
		zap.String("providerId", providerID),
		zap.Int("dayOfWeek", dayOfWeek),
		zap.String("start", rule.StartTime),
		zap.String("end", rule.EndTime))
	return rule, nil
}

func (s *DefaultAvailabilityService) DeleteRule(ctx context.Context, providerID, ruleID string) error {
	if err := s.Repo.Delete(ctx, providerID, ruleID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.NewAppError(utils.KindNotFound, "availability rule not found")
		}
		return fmt.Errorf("DeleteRule: %w", err)
	}
	s.Cache.InvalidateAll(ctx, providerID)
	return nil
}

func (s *DefaultAvailabilityService) ListRules(ctx context.Context, providerID string) ([]models.AvailabilityRule, error) {
	rules, err := s.Repo.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("ListRules: %w", err)
	}
	return rules, nil
}
