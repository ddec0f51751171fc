package callroom

import (
	"context"
	"errors"
	"strings"
	"testing"

	memoryRepo "expertmeet/database/repository/memory"
	"expertmeet/models"
	"expertmeet/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDProvisionerIssuesDistinctRooms(t *testing.T) {
	var p UUIDProvisioner
	a, err := p.Provision(context.Background())
	require.NoError(t, err)
	b, err := p.Provision(context.Background())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "room_"))
	assert.NotEqual(t, a, b)
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()
	appts := memoryRepo.NewAppointmentRepo()
	msgs := memoryRepo.NewMessageRepo()
	access, err := NewAccess(appts, msgs)
	require.NoError(t, err)

	room := "room_appt"
	require.NoError(t, appts.Create(ctx, &models.Appointment{ClientID: "c1", ProviderID: "p1", Method: models.MethodVideo, CallRoomID: &room}))
	require.NoError(t, msgs.Create(ctx, &models.Message{SenderID: "c2", RecipientID: "p1", Kind: models.MessageCallInvitation, RoomID: "room_msg"}))

	assert.NoError(t, access.Authorize(ctx, "room_appt", "c1"))
	assert.NoError(t, access.Authorize(ctx, "room_appt", "p1"))
	assert.NoError(t, access.Authorize(ctx, "room_msg", "c2"))
	assert.NoError(t, access.Authorize(ctx, "room_msg", "p1"))

	for _, tc := range []struct{ room, user string }{
		{"room_appt", "c2"},
		{"room_msg", "c1"},
		{"room_unknown", "c1"},
	} {
		err := access.Authorize(ctx, tc.room, tc.user)
		assert.True(t, errors.Is(err, utils.ErrNotFound), "%s/%s", tc.room, tc.user)
	}
}
