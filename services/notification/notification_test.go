package notification

import (
	"context"
	"errors"
	"testing"

	memoryRepo "expertmeet/database/repository/memory"
	"expertmeet/models"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []*messaging.Message
}

func (r *recordingSender) Send(_ context.Context, m *messaging.Message) (string, error) {
	r.sent = append(r.sent, m)
	return "projects/test/messages/1", nil
}

func TestNotifyAppointmentBooked(t *testing.T) {
	ctx := context.Background()
	profiles := memoryRepo.NewProfileRepo(models.Profile{ID: "p1", Role: models.RoleProvider, DisplayName: "Dana"})
	require.NoError(t, profiles.UpdateFCMToken(ctx, "p1", "device-token"))

	sender := &recordingSender{}
	svc, err := NewDefaultNotificationService(profiles, sender, nil)
	require.NoError(t, err)

	appt := models.Appointment{ID: "a1", ProviderID: "p1", Service: "Tax review", Date: "2025-03-10", Time: "09:00", Method: models.MethodVideo}
	require.NoError(t, svc.NotifyAppointmentBooked(ctx, appt, models.Profile{DisplayName: "Sam"}))

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "device-token", msg.Token)
	assert.Equal(t, "appointment_booked", msg.Data["type"])
	assert.Equal(t, "provider", msg.Data["role"])
	assert.Contains(t, msg.Notification.Body, "Sam")
}

func TestSendPushWithoutTokenFails(t *testing.T) {
	profiles := memoryRepo.NewProfileRepo(models.Profile{ID: "c1", Role: models.RoleClient})
	sender := &recordingSender{}
	svc, err := NewDefaultNotificationService(profiles, sender, nil)
	require.NoError(t, err)

	err = svc.SendPushNotification(context.Background(), "c1", "t", "b", nil)
	assert.True(t, errors.Is(err, ErrNoPushTarget))
	assert.Empty(t, sender.sent)
}
