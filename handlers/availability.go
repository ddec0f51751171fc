package handlers

import (
	"net/http"
	"time"

	"expertmeet/models"
	"expertmeet/services/availability"
	"expertmeet/utils"

	"github.com/gin-gonic/gin"
)

type AvailabilityHandler struct {
	Service availability.AvailabilityService
}

func NewAvailabilityHandler(svc availability.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{Service: svc}
}

// ProviderSlotsHandler lists the bookable start times of a provider on ?date=YYYY-MM-DD.
func (h *AvailabilityHandler) ProviderSlotsHandler(c *gin.Context) {
	providerID := c.Param("id")
	dateStr := c.Query("date")
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Missing or invalid date", "expected ?date=YYYY-MM-DD")
		return
	}

	slots, err := h.Service.DeriveSlots(c.Request.Context(), providerID, date)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SlotsResponse{ProviderID: providerID, Date: dateStr, Slots: slots})
}

func (h *AvailabilityHandler) CreateAvailabilityHandler(c *gin.Context) {
	providerID, ok := callerID(c)
	if !ok {
		return
	}
	var req models.CreateAvailabilityRuleRequest
	if !bindJSON(c, &req) {
		return
	}

	rule, err := h.Service.CreateRule(c.Request.Context(), providerID, *req.DayOfWeek, req.StartTime, req.EndTime)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"rule": rule})
}

func (h *AvailabilityHandler) ListAvailabilityHandler(c *gin.Context) {
	providerID, ok := callerID(c)
	if !ok {
		return
	}
	rules, err := h.Service.ListRules(c.Request.Context(), providerID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if rules == nil {
		rules = []models.AvailabilityRule{}
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

func (h *AvailabilityHandler) DeleteAvailabilityHandler(c *gin.Context) {
	providerID, ok := callerID(c)
	if !ok {
		return
	}
	if err := h.Service.DeleteRule(c.Request.Context(), providerID, c.Param("ruleId")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
