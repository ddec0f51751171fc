package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	memoryRepo "expertmeet/database/repository/memory"
	"expertmeet/models"
	"expertmeet/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2025-03-10 is a Monday.
var monday = time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

func newService(t *testing.T) *DefaultAvailabilityService {
	t.Helper()
	svc, err := NewDefaultAvailabilityService(memoryRepo.NewAvailabilityRepo(), nil, nil)
	require.NoError(t, err)
	return svc
}

func TestDeriveSlotsMondayMorning(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.CreateRule(ctx, "prov-1", int(time.Monday), "09:00", "10:00")
	require.NoError(t, err)

	slots, err := svc.DeriveSlots(ctx, "prov-1", monday)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30"}, slots)
}

func TestDeriveSlotsNoRulesIsEmpty(t *testing.T) {
	svc := newService(t)

	slots, err := svc.DeriveSlots(context.Background(), "prov-1", monday)
	require.NoError(t, err)
	assert.NotNil(t, slots)
	assert.Empty(t, slots)
}

func TestSlotsForRuleCountAndSpacing(t *testing.T) {
	cases := []struct {
		start, end string
		want       int
	}{
		{"09:00", "09:29", 1},
		{"09:00", "09:30", 1},
		{"09:00", "09:31", 2},
		{"08:15", "12:00", 8},
		{"00:00", "23:59", 48},
	}
	for _, tc := range cases {
		t.Run(tc.start+"-"+tc.end, func(t *testing.T) {
			slots, err := SlotsForRule(models.AvailabilityRule{StartTime: tc.start, EndTime: tc.end})
			require.NoError(t, err)
			assert.Len(t, slots, tc.want)

			start, _ := ParseClock(tc.start)
			end, _ := ParseClock(tc.end)
			for i, s := range slots {
				m, err := ParseClock(s)
				require.NoError(t, err)
				assert.Equal(t, start+i*30, m)
				assert.Less(t, m, end)
			}
		})
	}
}

func TestOverlappingRulesKeepDuplicatesInRuleOrder(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.CreateRule(ctx, "prov-1", 1, "10:00", "11:00")
	require.NoError(t, err)
	_, err = svc.CreateRule(ctx, "prov-1", 1, "09:30", "10:30")
	require.NoError(t, err)

	slots, err := svc.DeriveSlots(ctx, "prov-1", monday)
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00", "10:30", "09:30", "10:00"}, slots)
}

func TestCreateRuleRejectsInvertedWindow(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	for _, window := range [][2]string{{"10:00", "10:00"}, {"22:00", "02:00"}} {
		_, err := svc.CreateRule(ctx, "prov-1", 1, window[0], window[1])
		assert.True(t, errors.Is(err, utils.ErrInvalidArgument), "window %v", window)
	}

	rules, err := svc.ListRules(ctx, "prov-1")
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestDeleteRule(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	rule, err := svc.CreateRule(ctx, "prov-1", 1, "09:00", "10:00")
	require.NoError(t, err)

	err = svc.DeleteRule(ctx, "prov-2", rule.ID)
	assert.True(t, errors.Is(err, utils.ErrNotFound))

	require.NoError(t, svc.DeleteRule(ctx, "prov-1", rule.ID))
	slots, err := svc.DeriveSlots(ctx, "prov-1", monday)
	require.NoError(t, err)
	assert.Empty(t, slots)
}
