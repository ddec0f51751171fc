package usage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	memoryRepo "expertmeet/database/repository/memory"
	"expertmeet/models"
	"expertmeet/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFree = models.SubscriptionPlan{ID: "free", Name: "Free", MonthlyAppointments: 2, MonthlyStorageMb: 10, MonthlyChats: 2}

func newTestService(t *testing.T, plans ...models.SubscriptionPlan) (*DefaultUsageService, *memoryRepo.UsageRepo, *memoryRepo.PlanRepo) {
	t.Helper()
	usageStore := memoryRepo.NewUsageRepo()
	planStore := memoryRepo.NewPlanRepo(plans...)
	svc, err := NewDefaultUsageService(usageStore, planStore, "Free", nil)
	require.NoError(t, err)
	svc.Now = func() time.Time { return time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC) }
	return svc, usageStore, planStore
}

func TestEnsureActivePlanAssignsFreeOnce(t *testing.T) {
	svc, _, plans := newTestService(t, testFree)
	ctx := context.Background()

	plan, err := svc.EnsureActivePlan(ctx, "prov-1")
	require.NoError(t, err)
	assert.Equal(t, "free", plan.ID)

	sub, err := plans.GetSubscription(ctx, "prov-1")
	require.NoError(t, err)
	assert.Equal(t, "free", sub.PlanID)

	again, err := svc.EnsureActivePlan(ctx, "prov-1")
	require.NoError(t, err)
	assert.Equal(t, plan.ID, again.ID)
}

func TestEnsureActivePlanKeepsExistingAssignment(t *testing.T) {
	pro := models.SubscriptionPlan{ID: "pro", Name: "Pro", MonthlyAppointments: 50}
	svc, _, plans := newTestService(t, testFree, pro)
	ctx := context.Background()
	_, err := plans.AssignIfAbsent(ctx, "prov-1", "pro")
	require.NoError(t, err)

	plan, err := svc.EnsureActivePlan(ctx, "prov-1")
	require.NoError(t, err)
	assert.Equal(t, "pro", plan.ID)
}

func TestEnsureActivePlanWithoutFreePlanIsConfigurationError(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.EnsureActivePlan(context.Background(), "prov-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrConfiguration))
}

func TestEnsureActivePlanUsesInjectedPlanName(t *testing.T) {
	starter := models.SubscriptionPlan{ID: "starter", Name: "Starter", MonthlyAppointments: 1}
	svc, _, _ := newTestService(t, starter)
	svc.FreePlanName = "Starter"

	plan, err := svc.EnsureActivePlan(context.Background(), "prov-1")
	require.NoError(t, err)
	assert.Equal(t, "starter", plan.ID)
}

func TestCheckLimitAppointment(t *testing.T) {
	svc, _, _ := newTestService(t, testFree)
	ctx := context.Background()

	for i := 0; i < testFree.MonthlyAppointments; i++ {
		require.NoError(t, svc.CheckLimit(ctx, "prov-1", models.UsageAppointment, models.UsageDelta{}))
		require.NoError(t, svc.RecordUsage(ctx, "prov-1", models.UsageAppointment, models.UsageDelta{}))
	}

	err := svc.CheckLimit(ctx, "prov-1", models.UsageAppointment, models.UsageDelta{})
	assert.True(t, errors.Is(err, utils.ErrQuotaExceeded))
}

func TestStorageRoundsUpAtCheckAndRecord(t *testing.T) {
	svc, _, _ := newTestService(t, testFree)
	ctx := context.Background()

	require.NoError(t, svc.CheckLimit(ctx, "prov-1", models.UsageStorage, models.UsageDelta{SizeMb: 8.2}))
	require.NoError(t, svc.RecordUsage(ctx, "prov-1", models.UsageStorage, models.UsageDelta{SizeMb: 8.2}))

	period, err := svc.GetOrCreatePeriod(ctx, "prov-1")
	require.NoError(t, err)
	assert.Equal(t, 9, period.StorageUsedMb)

	assert.NoError(t, svc.CheckLimit(ctx, "prov-1", models.UsageStorage, models.UsageDelta{SizeMb: 0.5}))
	err = svc.CheckLimit(ctx, "prov-1", models.UsageStorage, models.UsageDelta{SizeMb: 1.01})
	assert.True(t, errors.Is(err, utils.ErrQuotaExceeded))
}

func TestCheckLimitChatPartners(t *testing.T) {
	plan := models.SubscriptionPlan{ID: "free", Name: "Free", MonthlyChats: 2}
	svc, _, _ := newTestService(t, plan)
	ctx := context.Background()

	require.NoError(t, svc.CheckLimit(ctx, "prov-1", models.UsageChat, models.UsageDelta{PartnerID: "a"}))
	require.NoError(t, svc.RecordUsage(ctx, "prov-1", models.UsageChat, models.UsageDelta{PartnerID: "a"}))
	require.NoError(t, svc.CheckLimit(ctx, "prov-1", models.UsageChat, models.UsageDelta{PartnerID: "b"}))
	require.NoError(t, svc.RecordUsage(ctx, "prov-1", models.UsageChat, models.UsageDelta{PartnerID: "b"}))

	err := svc.CheckLimit(ctx, "prov-1", models.UsageChat, models.UsageDelta{PartnerID: "c"})
	assert.True(t, errors.Is(err, utils.ErrQuotaExceeded))

	period, err := svc.GetOrCreatePeriod(ctx, "prov-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, period.UniqueChatPartners)
	assert.Equal(t, 2, period.ChatsUsed)
}

func TestConcurrentFirstUseConvergesOnOnePeriod(t *testing.T) {
	svc, store, _ := newTestService(t, testFree)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GetOrCreatePeriod(ctx, "prov-1")
			assert.NoError(t, err)
			assert.NoError(t, svc.RecordUsage(ctx, "prov-1", models.UsageAppointment, models.UsageDelta{}))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, store.PeriodCount())
	period, err := svc.GetOrCreatePeriod(ctx, "prov-1")
	require.NoError(t, err)
	assert.Equal(t, 2, period.AppointmentsUsed)
}

func TestCeilMb(t *testing.T) {
	assert.Equal(t, 0, CeilMb(0))
	assert.Equal(t, 1, CeilMb(0.001))
	assert.Equal(t, 3, CeilMb(3))
	assert.Equal(t, 4, CeilMb(3.2))
}
