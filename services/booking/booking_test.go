package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	memoryRepo "expertmeet/database/repository/memory"
	"expertmeet/models"
	"expertmeet/services/callroom"
	"expertmeet/services/lead"
	"expertmeet/services/tasks"
	"expertmeet/services/usage"
	"expertmeet/utils"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	engine *DefaultBookingEngine
	appts  *memoryRepo.AppointmentRepo
	usage  *memoryRepo.UsageRepo
	leads  *memoryRepo.LeadRepo
}

func newFixture(t *testing.T, plans ...models.SubscriptionPlan) *fixture {
	t.Helper()
	if len(plans) == 0 {
		plans = models.DefaultPlans()
	}
	profiles := memoryRepo.NewProfileRepo(
		models.Profile{ID: "client-1", Role: models.RoleClient, DisplayName: "Sam"},
		models.Profile{ID: "client-2", Role: models.RoleClient, DisplayName: "Kim"},
		models.Profile{ID: "provider-1", Role: models.RoleProvider, DisplayName: "Dana"},
	)
	appts := memoryRepo.NewAppointmentRepo()
	usageRepo := memoryRepo.NewUsageRepo()
	leadRepo := memoryRepo.NewLeadRepo()

	usageSvc, err := usage.NewDefaultUsageService(usageRepo, memoryRepo.NewPlanRepo(plans...), "Free", nil)
	require.NoError(t, err)
	leadSvc, err := lead.NewDefaultLeadService(leadRepo, appts, memoryRepo.NewMessageRepo(), nil)
	require.NoError(t, err)

	engine, err := NewDefaultBookingEngine(profiles, appts, usageSvc, callroom.UUIDProvisioner{}, leadSvc, nil)
	require.NoError(t, err)
	engine.Now = func() time.Time { return time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC) }
	usageSvc.Now = engine.Now

	return &fixture{engine: engine, appts: appts, usage: usageRepo, leads: leadRepo}
}

func videoRequest() models.BookAppointmentRequest {
	return models.BookAppointmentRequest{
		ProviderID: "provider-1",
		Service:    "Contract review",
		Date:       "2025-03-10",
		Time:       "09:00",
		Method:     models.MethodVideo,
	}
}

func TestBookAppointmentVideo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.engine.BookAppointment(ctx, "client-1", videoRequest())
	require.NoError(t, err)
	f.engine.Drain()

	assert.Equal(t, models.AppointmentPending, appt.Status)
	require.NotNil(t, appt.CallRoomID)
	assert.Regexp(t, `^room_[0-9a-f-]{36}$`, *appt.CallRoomID)

	period, err := f.usage.GetOrCreate(ctx, "provider-1", 3, 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, period.AppointmentsUsed)

	leads, err := f.leads.ListByProvider(ctx, "provider-1")
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "client-1", leads[0].ClientID)
	assert.Equal(t, models.LeadFromBooking, leads[0].Source)
	assert.Equal(t, appt.ID, leads[0].SourceID)
}

func TestBookAppointmentInPersonHasNoRoom(t *testing.T) {
	f := newFixture(t)
	req := videoRequest()
	req.Method = models.MethodInPerson

	appt, err := f.engine.BookAppointment(context.Background(), "client-1", req)
	require.NoError(t, err)
	f.engine.Drain()
	assert.Nil(t, appt.CallRoomID)
}

func TestDoubleBookingSucceedsAndEmitsOneLead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.engine.BookAppointment(ctx, "client-1", videoRequest())
	require.NoError(t, err)
	second, err := f.engine.BookAppointment(ctx, "client-1", videoRequest())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, *first.CallRoomID, *second.CallRoomID)
	assert.Equal(t, 2, f.appts.Count())

	leads, err := f.leads.ListByProvider(ctx, "provider-1")
	require.NoError(t, err)
	assert.Len(t, leads, 1)

	period, err := f.usage.GetOrCreate(ctx, "provider-1", 3, 2025)
	require.NoError(t, err)
	assert.Equal(t, 2, period.AppointmentsUsed)
}

func TestBookAppointmentQuotaExceeded(t *testing.T) {
	f := newFixture(t, models.SubscriptionPlan{ID: "plan_free", Name: "Free", MonthlyAppointments: 1, MonthlyStorageMb: 10, MonthlyChats: 1})
	ctx := context.Background()

	_, err := f.engine.BookAppointment(ctx, "client-1", videoRequest())
	require.NoError(t, err)

	_, err = f.engine.BookAppointment(ctx, "client-2", videoRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrQuotaExceeded))
	assert.Equal(t, 1, f.appts.Count())
}

func TestUsageRecordedBeforeBookReturns(t *testing.T) {
	f := newFixture(t)
	f.engine.Notifier = panickingNotifier{}
	f.engine.Reminders = &recordingEnqueuer{}
	ctx := context.Background()

	appt, err := f.engine.BookAppointment(ctx, "client-2", videoRequest())
	require.NoError(t, err)

	period, err := f.usage.GetOrCreate(ctx, "provider-1", 3, 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, period.AppointmentsUsed)

	leads, err := f.leads.ListByProvider(ctx, "provider-1")
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, appt.ID, leads[0].SourceID)

	f.engine.Drain()
}

func TestBackToBackBookingsAtQuota(t *testing.T) {
	f := newFixture(t, models.SubscriptionPlan{ID: "plan_free", Name: "Free", MonthlyAppointments: 1, MonthlyStorageMb: 10, MonthlyChats: 1})
	ctx := context.Background()

	for i, client := range []string{"client-1", "client-1", "client-2"} {
		_, err := f.engine.BookAppointment(ctx, client, videoRequest())
		if i == 0 {
			require.NoError(t, err)
			continue
		}
		assert.True(t, errors.Is(err, utils.ErrQuotaExceeded), "booking %d", i)
	}
	assert.Equal(t, 1, f.appts.Count())
}

func TestBookAppointmentUnknownParties(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.BookAppointment(ctx, "nobody", videoRequest())
	assert.True(t, errors.Is(err, utils.ErrNotFound))

	// a provider cannot book as a client
	_, err = f.engine.BookAppointment(ctx, "provider-1", videoRequest())
	assert.True(t, errors.Is(err, utils.ErrNotFound))

	req := videoRequest()
	req.ProviderID = "client-2"
	_, err = f.engine.BookAppointment(ctx, "client-1", req)
	assert.True(t, errors.Is(err, utils.ErrNotFound))

	assert.Equal(t, 0, f.appts.Count())
	assert.Equal(t, 0, f.usage.PeriodCount())
}

type failingProvisioner struct{}

func (failingProvisioner) Provision(context.Context) (string, error) {
	return "", errors.New("entropy exhausted")
}

func TestBookAppointmentProvisioningFailure(t *testing.T) {
	f := newFixture(t)
	f.engine.Rooms = failingProvisioner{}

	_, err := f.engine.BookAppointment(context.Background(), "client-1", videoRequest())
	require.Error(t, err)
	assert.Equal(t, utils.KindCallProvisioning, utils.KindOf(err))
	assert.Equal(t, 0, f.appts.Count())
}

type panickingNotifier struct{}

func (panickingNotifier) NotifyAppointmentBooked(context.Context, models.Appointment, models.Profile) error {
	panic("fcm exploded")
}

func (panickingNotifier) NotifyAppointmentStatus(context.Context, models.Appointment, string) error {
	return errors.New("unreachable device")
}

type recordingEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
}

func (r *recordingEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{ID: "t"}, nil
}

func TestEffectFailureDoesNotAffectBookingOrOtherEffects(t *testing.T) {
	f := newFixture(t)
	f.engine.Notifier = panickingNotifier{}
	enq := &recordingEnqueuer{}
	f.engine.Reminders = enq
	ctx := context.Background()

	appt, err := f.engine.BookAppointment(ctx, "client-1", videoRequest())
	require.NoError(t, err)
	f.engine.Drain()

	stored, err := f.appts.GetByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentPending, stored.Status)

	period, err := f.usage.GetOrCreate(ctx, "provider-1", 3, 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, period.AppointmentsUsed)

	// reminders run after the panicking push and still go out, one per party
	require.Len(t, enq.tasks, 2)
	assert.Equal(t, tasks.TypeSendReminder, enq.tasks[0].Type())
}

func TestNoReminderWhenStartIsTooClose(t *testing.T) {
	f := newFixture(t)
	enq := &recordingEnqueuer{}
	f.engine.Reminders = enq
	req := videoRequest()
	req.Date = "2025-03-01"
	req.Time = "08:30"

	_, err := f.engine.BookAppointment(context.Background(), "client-1", req)
	require.NoError(t, err)
	f.engine.Drain()
	assert.Empty(t, enq.tasks)
}

func TestCancelAppointmentIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.engine.BookAppointment(ctx, "client-1", videoRequest())
	require.NoError(t, err)
	f.engine.Drain()

	for i := 0; i < 2; i++ {
		got, err := f.engine.CancelAppointment(ctx, appt.ID)
		require.NoError(t, err)
		assert.Equal(t, models.AppointmentCanceled, got.Status)
	}

	_, err = f.engine.CancelAppointment(ctx, "missing")
	assert.True(t, errors.Is(err, utils.ErrNotFound))
}

func TestConfirmAppointment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.engine.BookAppointment(ctx, "client-1", videoRequest())
	require.NoError(t, err)
	f.engine.Drain()

	_, err = f.engine.ConfirmAppointment(ctx, "client-1", appt.ID)
	assert.True(t, errors.Is(err, utils.ErrForbidden))

	_, err = f.engine.ConfirmAppointment(ctx, "provider-9", appt.ID)
	assert.True(t, errors.Is(err, utils.ErrNotFound))

	got, err := f.engine.ConfirmAppointment(ctx, "provider-1", appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentConfirmed, got.Status)

	_, err = f.engine.CancelAppointment(ctx, appt.ID)
	require.NoError(t, err)
	_, err = f.engine.ConfirmAppointment(ctx, "provider-1", appt.ID)
	assert.True(t, errors.Is(err, utils.ErrInvalidArgument))
}

func TestListAndCompleteElapsed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.engine.BookAppointment(ctx, "client-1", videoRequest())
	require.NoError(t, err)
	f.engine.Drain()
	_, err = f.engine.ConfirmAppointment(ctx, "provider-1", appt.ID)
	require.NoError(t, err)

	mine, err := f.engine.ListAppointments(ctx, "client-1", models.RoleClient)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	none, err := f.engine.ListAppointments(ctx, "client-2", models.RoleClient)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	n, err := f.engine.CompleteElapsed(ctx, time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = f.engine.CompleteElapsed(ctx, time.Date(2025, 3, 11, 0, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := f.engine.GetAppointment(ctx, "provider-1", appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentCompleted, got.Status)
}
