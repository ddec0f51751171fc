package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"expertmeet/database/repository"
	"expertmeet/models"
	"expertmeet/services/signaling"
	"expertmeet/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testAPI struct {
	t      *testing.T
	app    *App
	router *gin.Engine
	tokens map[string]string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := signaling.NewMemoryHub()
	app, err := NewApp(repository.NewMemorySet(models.DefaultPlans()...), Infra{Channel: hub, Presence: hub}, zap.NewNop())
	require.NoError(t, err)

	api := &testAPI{t: t, app: app, router: NewRouter(app, zap.NewNop()), tokens: map[string]string{}}
	for id, role := range map[string]models.Role{"pat": models.RoleProvider, "cleo": models.RoleClient, "omar": models.RoleClient} {
		token, err := utils.GenerateToken(id, string(role), id, time.Hour)
		require.NoError(t, err)
		api.tokens[id] = token
	}
	return api
}

func (a *testAPI) do(method, path, as string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != "" {
		req.Header.Set("Authorization", "Bearer "+a.tokens[as])
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (a *testAPI) setupProfiles() {
	a.t.Helper()
	w := a.do(http.MethodPut, "/api/profile", "pat", gin.H{"displayName": "Pat Legal", "hourlyRate": "120.50"})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	for _, c := range []string{"cleo", "omar"} {
		w = a.do(http.MethodPut, "/api/profile", c, gin.H{"displayName": c})
		require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	}
}

func (a *testAPI) book(as string, method models.AppointmentMethod) models.Appointment {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/appointments", as, gin.H{
		"providerId": "pat",
		"service":    "Contract review",
		"date":       "2031-03-03",
		"time":       "09:00",
		"method":     method,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[struct {
		Appointment models.Appointment `json:"appointment"`
	}](a.t, w).Appointment
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestAvailabilityAndSlots(t *testing.T) {
	api := newTestAPI(t)
	api.setupProfiles()

	w := api.do(http.MethodPost, "/api/availability", "pat", gin.H{"dayOfWeek": 1, "startTime": "09:00", "endTime": "10:30"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(http.MethodPost, "/api/availability", "pat", gin.H{"dayOfWeek": 1, "startTime": "9:00", "endTime": "10:30"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPost, "/api/availability", "pat", gin.H{"dayOfWeek": 1, "startTime": "22:00", "endTime": "01:00"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), string(utils.KindInvalidArgument))

	w = api.do(http.MethodPost, "/api/availability", "cleo", gin.H{"dayOfWeek": 1, "startTime": "09:00", "endTime": "10:00"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 2025-03-03 is a Monday.
	w = api.do(http.MethodGet, "/api/providers/pat/slots?date=2025-03-03", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	slots := decode[models.SlotsResponse](t, w)
	assert.Equal(t, []string{"09:00", "09:30", "10:00"}, slots.Slots)

	w = api.do(http.MethodGet, "/api/providers/pat/slots?date=2025-03-04", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"providerId":"pat","date":"2025-03-04","slots":[]}`, w.Body.String())

	w = api.do(http.MethodGet, "/api/providers/pat/slots?date=03-03-2025", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingFlow(t *testing.T) {
	api := newTestAPI(t)
	api.setupProfiles()

	appt := api.book("cleo", models.MethodVideo)
	require.NotNil(t, appt.CallRoomID)
	assert.Equal(t, models.AppointmentPending, appt.Status)

	w := api.do(http.MethodGet, "/api/leads", "pat", nil)
	require.Equal(t, http.StatusOK, w.Code)
	leads := decode[struct {
		Leads []models.Lead `json:"leads"`
	}](t, w).Leads
	require.Len(t, leads, 1)
	assert.Equal(t, "cleo", leads[0].ClientID)
	assert.Equal(t, models.LeadFromBooking, leads[0].Source)

	w = api.do(http.MethodGet, "/api/usage", "pat", nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[models.UsageSummary](t, w)
	assert.Equal(t, 1, summary.Period.AppointmentsUsed)
	assert.Equal(t, "Free", summary.Plan.Name)

	w = api.do(http.MethodGet, "/api/appointments/"+appt.ID, "omar", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodPost, "/api/appointments/"+appt.ID+"/confirm", "pat", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"confirmed"`)

	w = api.do(http.MethodPost, "/api/appointments/"+appt.ID+"/cancel", "cleo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"canceled"`)

	w = api.do(http.MethodPost, "/api/appointments/missing/cancel", "cleo", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodPost, "/api/appointments/"+appt.ID+"/payment-intent", "cleo", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), string(utils.KindConfiguration))
}

func TestBookingRejections(t *testing.T) {
	api := newTestAPI(t)
	api.setupProfiles()

	w := api.do(http.MethodPost, "/api/appointments", "pat", gin.H{
		"providerId": "pat", "service": "x", "date": "2031-03-03", "time": "09:00", "method": "video",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPost, "/api/appointments", "cleo", gin.H{
		"providerId": "pat", "service": "x", "date": "2031-03-03", "time": "09:00", "method": "phone",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPost, "/api/appointments", "cleo", gin.H{
		"providerId": "nobody", "service": "x", "date": "2031-03-03", "time": "09:00", "method": "video",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodGet, "/api/appointments", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestQuotaExceededIsPaymentRequired(t *testing.T) {
	api := newTestAPI(t)
	api.setupProfiles()

	free := models.DefaultPlans()[0]
	for i := 0; i < free.MonthlyAppointments; i++ {
		api.book("cleo", models.MethodInPerson)
	}
	w := api.do(http.MethodPost, "/api/appointments", "cleo", gin.H{
		"providerId": "pat", "service": "x", "date": "2031-03-03", "time": "09:00", "method": "video",
	})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Body.String(), string(utils.KindQuotaExceeded))
}

func TestMessagesAndCalls(t *testing.T) {
	api := newTestAPI(t)
	api.setupProfiles()

	w := api.do(http.MethodPost, "/api/messages", "omar", gin.H{"recipientId": "pat", "content": "Hello"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(http.MethodPost, "/api/calls", "pat", gin.H{"recipientId": "omar"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	roomID := decode[struct {
		RoomID string `json:"roomId"`
	}](t, w).RoomID
	require.NotEmpty(t, roomID)

	w = api.do(http.MethodGet, "/api/messages/pat?limit=10", "omar", nil)
	require.Equal(t, http.StatusOK, w.Code)
	msgs := decode[struct {
		Messages []models.Message `json:"messages"`
	}](t, w).Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, models.MessageText, msgs[0].Kind)
	assert.Equal(t, models.MessageCallInvitation, msgs[1].Kind)

	w = api.do(http.MethodGet, "/api/leads", "pat", nil)
	assert.Contains(t, w.Body.String(), `"source":"message"`)

	// Room access follows the invitation.
	w = api.do(http.MethodPost, "/api/rooms/"+roomID+"/presence", "omar", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"identity":"omar"`)

	w = api.do(http.MethodGet, "/api/rooms/"+roomID+"/presence", "cleo", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodDelete, "/api/rooms/"+roomID+"/presence", "omar", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRelaySignal(t *testing.T) {
	api := newTestAPI(t)
	api.setupProfiles()
	appt := api.book("cleo", models.MethodVideo)
	room := *appt.CallRoomID

	w := api.do(http.MethodPost, "/api/rooms/"+room+"/signal", "cleo", gin.H{"type": "hangup", "payload": gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), string(utils.KindSignaling))

	w = api.do(http.MethodPost, "/api/rooms/"+room+"/signal", "omar", gin.H{"type": "offer", "payload": gin.H{"sdp": "v=0"}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	srv := httptest.NewServer(api.router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/rooms/" + room + "/events?access_token=" + api.tokens["cleo"])
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	events := make(chan [2]string, 8)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		var event string
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event:"):
				event = strings.TrimPrefix(line, "event:")
			case strings.HasPrefix(line, "data:"):
				events <- [2]string{event, strings.TrimPrefix(line, "data:")}
			}
		}
		close(events)
	}()

	next := func() [2]string {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "stream closed")
			return ev
		case <-time.After(2 * time.Second):
			t.Fatal("no event received")
			return [2]string{}
		}
	}

	first := next()
	assert.Equal(t, "presence", first[0])
	assert.Equal(t, "[]", first[1])

	w = api.do(http.MethodPost, "/api/rooms/"+room+"/signal", "pat", gin.H{"type": "offer", "from": "mallory", "payload": gin.H{"sdp": "v=0"}})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	ev := next()
	assert.Equal(t, "signal", ev[0])
	env, err := signaling.Decode([]byte(ev[1]))
	require.NoError(t, err)
	assert.Equal(t, "pat", env.From)
	assert.Equal(t, signaling.Offer{SDP: "v=0"}, env.Signal)

	w = api.do(http.MethodPost, "/api/rooms/"+room+"/presence", "pat", nil)
	require.Equal(t, http.StatusOK, w.Code)
	ev = next()
	assert.Equal(t, "presence", ev[0])
	assert.Contains(t, ev[1], `"identity":"pat"`)
}
