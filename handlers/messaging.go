package handlers

import (
	"net/http"
	"strconv"

	"expertmeet/models"
	"expertmeet/services/messaging"
	"expertmeet/utils"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	Service messaging.MessagingService
}

func NewMessageHandler(svc messaging.MessagingService) *MessageHandler {
	return &MessageHandler{Service: svc}
}

func (h *MessageHandler) SendMessageHandler(c *gin.Context) {
	senderID, ok := callerID(c)
	if !ok {
		return
	}
	var req models.SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	msg, err := h.Service.SendMessage(c.Request.Context(), senderID, req.RecipientID, req.Content)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// ConversationHandler lists messages with :otherId, oldest first. ?limit= caps the page.
func (h *MessageHandler) ConversationHandler(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var limit int64
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			utils.JSONError(c, http.StatusBadRequest, "Invalid limit", "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	msgs, err := h.Service.Conversation(c.Request.Context(), userID, c.Param("otherId"), limit)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// StartCallHandler posts a call invitation whose roomId both parties join.
func (h *MessageHandler) StartCallHandler(c *gin.Context) {
	senderID, ok := callerID(c)
	if !ok {
		return
	}
	var req models.StartCallRequest
	if !bindJSON(c, &req) {
		return
	}
	msg, err := h.Service.StartCall(c.Request.Context(), senderID, req.RecipientID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg, "roomId": msg.RoomID})
}
