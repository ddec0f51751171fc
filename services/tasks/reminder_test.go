package tasks

import (
	"encoding/json"
	"testing"
	"time"

	"expertmeet/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReminderTask(t *testing.T) {
	payload := models.ReminderPayload{ID: "c1", AppointmentID: "a1", Title: "Soon", Target: models.RoleClient}
	task, opts, err := NewReminderTask(payload, time.Now().Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, TypeSendReminder, task.Type())
	assert.Len(t, opts, 4)

	var decoded models.ReminderPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	assert.Equal(t, payload, decoded)
}
