package handlers

import (
	"net/http"

	"expertmeet/models"
	"expertmeet/services/lead"
	"expertmeet/services/usage"
	"expertmeet/utils"

	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the provider's usage and lead views.
type DashboardHandler struct {
	Usage usage.UsageService
	Leads lead.LeadService
}

func NewDashboardHandler(usageSvc usage.UsageService, leads lead.LeadService) *DashboardHandler {
	return &DashboardHandler{Usage: usageSvc, Leads: leads}
}

func (h *DashboardHandler) UsageSummaryHandler(c *gin.Context) {
	providerID, ok := callerID(c)
	if !ok {
		return
	}
	summary, err := h.Usage.Summary(c.Request.Context(), providerID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *DashboardHandler) ListLeadsHandler(c *gin.Context) {
	providerID, ok := callerID(c)
	if !ok {
		return
	}
	leads, err := h.Leads.ListLeads(c.Request.Context(), providerID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if leads == nil {
		leads = []models.Lead{}
	}
	c.JSON(http.StatusOK, gin.H{"leads": leads})
}

func (h *DashboardHandler) UpdateLeadHandler(c *gin.Context) {
	providerID, ok := callerID(c)
	if !ok {
		return
	}
	var req models.UpdateLeadRequest
	if !bindJSON(c, &req) {
		return
	}
	updated, err := h.Leads.UpdateLeadStatus(c.Request.Context(), providerID, c.Param("id"), req.Status)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lead": updated})
}
