package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"expertmeet/services/signaling"
	"expertmeet/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RoomAuthorizer decides whether a user may take part in a call room.
type RoomAuthorizer interface {
	Authorize(ctx context.Context, roomID, userID string) error
}

// RoomHandler relays signaling for browser participants. Envelopes posted here
// reach every subscriber of the room, including headless coordinators.
type RoomHandler struct {
	Access    RoomAuthorizer
	Channel   signaling.MessageChannel
	Presence  signaling.PresenceTracker
	KeepAlive time.Duration
}

func NewRoomHandler(access RoomAuthorizer, channel signaling.MessageChannel, presence signaling.PresenceTracker) *RoomHandler {
	return &RoomHandler{Access: access, Channel: channel, Presence: presence, KeepAlive: 25 * time.Second}
}

func (h *RoomHandler) authorize(c *gin.Context) (roomID, userID string, ok bool) {
	userID, ok = callerID(c)
	if !ok {
		return "", "", false
	}
	roomID = c.Param("roomId")
	if err := h.Access.Authorize(c.Request.Context(), roomID, userID); err != nil {
		utils.RespondError(c, err)
		return "", "", false
	}
	return roomID, userID, true
}

// RelaySignalHandler validates an envelope and publishes it to the room. The
// sender is always the caller, whatever `from` the body carries.
func (h *RoomHandler) RelaySignalHandler(c *gin.Context) {
	roomID, userID, ok := h.authorize(c)
	if !ok {
		return
	}
	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, utils.WrapAppError(utils.KindSignaling, err, "malformed signaling envelope"))
		return
	}
	from, _ := json.Marshal(userID)
	body["from"] = from
	raw, err := json.Marshal(body)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	env, err := signaling.Decode(raw)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	out, err := signaling.Encode(userID, env.Signal)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.Channel.Publish(c.Request.Context(), roomID, out); err != nil {
		getLogger(c).Error("signal publish failed", zap.String("roomId", roomID), zap.Error(err))
		utils.RespondError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// RoomEventsHandler streams the room as Server-Sent Events: `signal` carries a
// raw envelope, `presence` the ordered member list, `ping` keeps proxies open.
func (h *RoomHandler) RoomEventsHandler(c *gin.Context) {
	roomID, userID, ok := h.authorize(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	logger := getLogger(c).With(zap.String("roomId", roomID), zap.String("userId", userID))

	sub, err := h.Channel.Subscribe(ctx, roomID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	defer sub.Close()
	watch, unwatch, err := h.Presence.Watch(ctx, roomID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	defer unwatch()

	keepAlive := h.KeepAlive
	if keepAlive <= 0 {
		keepAlive = 25 * time.Second
	}
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	sentInitial := false
	c.Stream(func(w io.Writer) bool {
		if !sentInitial {
			sentInitial = true
			return h.sendPresence(c, roomID, logger)
		}
		select {
		case <-ctx.Done():
			return false
		case raw, open := <-sub.Messages():
			if !open {
				logger.Warn("room subscription closed")
				return false
			}
			c.SSEvent("signal", json.RawMessage(raw))
			return true
		case <-watch:
			return h.sendPresence(c, roomID, logger)
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
	logger.Debug("room event stream closed")
}

func (h *RoomHandler) sendPresence(c *gin.Context, roomID string, logger *zap.Logger) bool {
	entries, err := h.Presence.State(c.Request.Context(), roomID)
	if err != nil {
		logger.Warn("presence state unavailable", zap.Error(err))
		return true
	}
	if entries == nil {
		entries = []signaling.PresenceEntry{}
	}
	c.SSEvent("presence", entries)
	return true
}

func (h *RoomHandler) JoinRoomHandler(c *gin.Context) {
	roomID, userID, ok := h.authorize(c)
	if !ok {
		return
	}
	if err := h.Presence.Track(c.Request.Context(), roomID, userID); err != nil {
		utils.RespondError(c, err)
		return
	}
	h.respondPresence(c, roomID)
}

func (h *RoomHandler) LeaveRoomHandler(c *gin.Context) {
	roomID, userID, ok := h.authorize(c)
	if !ok {
		return
	}
	if err := h.Presence.Untrack(c.Request.Context(), roomID, userID); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RoomHandler) RoomPresenceHandler(c *gin.Context) {
	roomID, _, ok := h.authorize(c)
	if !ok {
		return
	}
	h.respondPresence(c, roomID)
}

func (h *RoomHandler) respondPresence(c *gin.Context, roomID string) {
	entries, err := h.Presence.State(c.Request.Context(), roomID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if entries == nil {
		entries = []signaling.PresenceEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"roomId": roomID, "members": entries})
}
